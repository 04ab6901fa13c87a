package derive

import (
	"fmt"
	"strings"

	"github.com/jimyag/splunk-inventory/pkg/environ"
	"github.com/jimyag/splunk-inventory/pkg/errors"
	"github.com/jimyag/splunk-inventory/pkg/tree"
)

// DockerVersion 写入 docker_version 的固定版本
const DockerVersion = "18.06.0"

// Build 远程安装包地址以 http 开头时设置 build_remote_src
func Build(t tree.Tree, c *Context) error {
	s, err := splunk(t)
	if err != nil {
		return err
	}
	location := environ.Get(c.env(), "SPLUNK_BUILD_URL", tree.String(s, "build_location"))
	if location == "" {
		s["build_location"] = nil
	} else {
		s["build_location"] = location
	}
	s["build_remote_src"] = strings.HasPrefix(location, "http")
	return nil
}

// Apps 合并默认配置中的 apps_location 和 SPLUNK_APPS_URL，去重并保持首次出现的顺序
func Apps(t tree.Tree, c *Context) error {
	s, err := splunk(t)
	if err != nil {
		return err
	}

	var merged []interface{}
	seen := make(map[string]bool)
	add := func(items []interface{}) {
		for _, item := range items {
			key := strings.TrimSpace(fmt.Sprint(item))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, key)
		}
	}

	add(environ.ToList(s["apps_location"]))
	if raw, ok := c.env().LookupEnv("SPLUNK_APPS_URL"); ok {
		add(environ.SplitList(raw))
	}

	if merged == nil {
		merged = []interface{}{}
	}
	s["apps_location"] = merged
	return nil
}

// LaunchConf 把 SPLUNK_LAUNCH_CONF=K=V,K2=V2 合并到 splunk.launch
func LaunchConf(t tree.Tree, c *Context) error {
	launch, err := tree.Section(t, "splunk.launch")
	if err != nil {
		return err
	}
	raw, ok := c.env().LookupEnv("SPLUNK_LAUNCH_CONF")
	if !ok {
		return nil
	}
	for _, item := range environ.SplitList(raw) {
		kv := item.(string)
		k, v, found := strings.Cut(kv, "=")
		if !found || strings.TrimSpace(k) == "" {
			return errors.NewConfigurationErrorf("SPLUNK_LAUNCH_CONF", "invalid SPLUNK_LAUNCH_CONF entry %q, expected KEY=VALUE", kv)
		}
		launch[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return nil
}

// UFVariables 设置 universal forwarder 相关的固定变量
func UFVariables(t tree.Tree, c *Context) error {
	t["docker_version"] = DockerVersion
	return nil
}

var dfsFields = []environ.Field{
	{Path: "enable", EnvVar: "SPLUNK_ENABLE_DFS", Kind: environ.Bool, Default: false},
	{Path: "dfw_num_slots", EnvVar: "SPLUNK_DFW_NUM_SLOTS", Kind: environ.Int, Default: 10},
	{Path: "dfc_num_slots", EnvVar: "SPLUNK_DFC_NUM_SLOTS", Kind: environ.Int, Default: 4},
	{Path: "dfw_num_slots_enabled", EnvVar: "SPLUNK_DFW_NUM_SLOTS_ENABLED", Kind: environ.Bool, Default: false},
	{Path: "spark_master_host", EnvVar: "SPARK_MASTER_HOST", Kind: environ.String, Default: "127.0.0.1"},
	{Path: "spark_master_webui_port", EnvVar: "SPARK_MASTER_WEBUI_PORT", Kind: environ.Int, Default: 8080},
}

// DFS 解析 splunk.dfs
func DFS(t tree.Tree, c *Context) error {
	_, err := resolveSection(t, c, "splunk.dfs", dfsFields)
	return err
}

var hecFields = []environ.Field{
	{Path: "token", EnvVar: "SPLUNK_HEC_TOKEN", Kind: environ.String},
	{Path: "port", EnvVar: "SPLUNK_HEC_PORT", Kind: environ.Int, Default: 8088},
	{Path: "ssl", EnvVar: "SPLUNK_HEC_SSL", Kind: environ.Bool, Default: true},
	{Path: "enable", EnvVar: "SPLUNK_HEC_ENABLE", Kind: environ.Bool, Default: true},
	{Path: "cert", EnvVar: "SPLUNK_HEC_CERT", Kind: environ.String},
	{Path: "ssl_password", EnvVar: "SPLUNK_HEC_SSL_PASSWORD", Kind: environ.String},
}

// HEC 解析 splunk.hec，token 未设置时沿用旧字段 splunk.hec_token
func HEC(t tree.Tree, c *Context) error {
	hec, err := resolveSection(t, c, "splunk.hec", hecFields)
	if err != nil {
		return err
	}
	if isBlank(hec["token"]) {
		if legacy := tree.String(t, "splunk.hec_token"); legacy != "" {
			hec["token"] = legacy
		}
	}
	return nil
}
