// Package derive 在环境变量解析之后计算相互依赖的派生字段
package derive

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jimyag/splunk-inventory/pkg/environ"
	"github.com/jimyag/splunk-inventory/pkg/tree"
)

// DefaultSplunkbaseURL Splunkbase 登录地址
const DefaultSplunkbaseURL = "https://splunkbase.splunk.com/api/account:login/"

// 主机分组名
const (
	GroupIndexer    = "splunk_indexer"
	GroupSearchHead = "splunk_search_head"
)

// HostGroup 某个角色下的主机
type HostGroup struct {
	Hosts []string `json:"hosts"`
}

// HostGroups 角色名到主机分组的映射
type HostGroups map[string]HostGroup

// Count 返回分组主机数，分组不存在时返回 false
func (g HostGroups) Count(name string) (int, bool) {
	group, ok := g[name]
	if !ok {
		return 0, false
	}
	return len(group.Hosts), true
}

// Context 一次解析过程的上下文，派生函数只通过它读取环境和拓扑
type Context struct {
	// Ctx 取消时中止派生过程中的网络请求
	Ctx           context.Context
	Env           environ.Env
	Groups        HostGroups
	HTTPClient    *resty.Client
	SplunkbaseURL string
	Platform      string
	Hostname      string
}

// NewContext 创建 Context，未设置的字段使用默认值
func NewContext(env environ.Env, groups HostGroups) *Context {
	if env == nil {
		env = environ.OSEnv{}
	}
	if groups == nil {
		groups = HostGroups{}
	}
	return &Context{
		Env:           env,
		Groups:        groups,
		HTTPClient:    resty.New().SetTimeout(30 * time.Second),
		SplunkbaseURL: DefaultSplunkbaseURL,
		Platform:      "linux",
	}
}

func (c *Context) env() environ.Env {
	if c == nil || c.Env == nil {
		return environ.OSEnv{}
	}
	return c.Env
}

// requestContext 派生过程中发出请求使用的 ctx，未设置时不可取消
func (c *Context) requestContext() context.Context {
	if c == nil || c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

func (c *Context) groups() HostGroups {
	if c == nil {
		return nil
	}
	return c.Groups
}

// Func 派生函数，原地修改配置树
type Func func(t tree.Tree, c *Context) error

// Step 带名字的派生步骤
type Step struct {
	Name string
	Fn   Func
}

// Steps 按执行顺序返回全部派生步骤
// 集群因子依赖主机分组，multisite 依赖 idxc 因子，拓扑 URL 依赖 cert_prefix 和 svc_port
func Steps() []Step {
	return []Step{
		{Name: "secrets", Fn: Secrets},
		{Name: "splunkd_ssl", Fn: SplunkdSSL},
		{Name: "splunkweb_ssl", Fn: SplunkWebSSL},
		{Name: "indexer_clustering", Fn: IndexerClustering},
		{Name: "search_head_clustering", Fn: SearchHeadClustering},
		{Name: "multisite", Fn: Multisite},
		{Name: "distributed_topology", Fn: DistributedTopology},
		{Name: "licenses", Fn: Licenses},
		{Name: "java", Fn: Java},
		{Name: "build", Fn: Build},
		{Name: "splunkbase_token", Fn: SplunkbaseToken},
		{Name: "apps", Fn: Apps},
		{Name: "launch_conf", Fn: LaunchConf},
		{Name: "uf_variables", Fn: UFVariables},
		{Name: "dfs", Fn: DFS},
		{Name: "hec", Fn: HEC},
	}
}

// All 依次执行全部派生步骤，遇到错误立即返回
func All(t tree.Tree, c *Context) error {
	for _, step := range Steps() {
		if err := step.Fn(t, c); err != nil {
			return err
		}
	}
	return nil
}

// splunk 返回 splunk 子树，不存在时创建
func splunk(t tree.Tree) (tree.Tree, error) {
	return tree.Section(t, "splunk")
}

// resolveSection 在 path 子树上按字段表做环境变量覆盖
func resolveSection(t tree.Tree, c *Context, path string, fields []environ.Field) (tree.Tree, error) {
	section, err := tree.Section(t, path)
	if err != nil {
		return nil, err
	}
	if err := environ.ResolveFields(section, c.env(), fields); err != nil {
		return nil, err
	}
	return section, nil
}

// isBlank nil 或空字符串
func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
