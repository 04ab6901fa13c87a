package inventory

import (
	"context"
	"io/fs"
	"regexp"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jimyag/splunk-inventory/pkg/defaults"
	"github.com/jimyag/splunk-inventory/pkg/derive"
	"github.com/jimyag/splunk-inventory/pkg/environ"
	"github.com/jimyag/splunk-inventory/pkg/facts"
	"github.com/jimyag/splunk-inventory/pkg/fetch"
	"github.com/jimyag/splunk-inventory/pkg/logger"
	"github.com/jimyag/splunk-inventory/pkg/metrics"
	"github.com/jimyag/splunk-inventory/pkg/tree"
)

// RoleNames 可识别的角色名，<ROLE>_URL 环境变量只有前缀在此列表中才会成为主机组
var RoleNames = []string{
	"splunk_cluster_master",
	"splunk_deployer",
	"splunk_heavy_forwarder",
	"splunk_standalone",
	"splunk_search_head",
	"splunk_indexer",
	"splunk_license_master",
	"splunk_search_head_captain",
	"splunk_universal_forwarder",
}

var groupVarPattern = regexp.MustCompile(`^(.*)_URL$`)

// S3 片段来源的连接参数
const (
	EnvS3Region    = "SPLUNK_DEFAULTS_S3_REGION"
	EnvS3Endpoint  = "SPLUNK_DEFAULTS_S3_ENDPOINT"
	EnvS3AccessKey = "SPLUNK_DEFAULTS_S3_ACCESS_KEY"
	EnvS3SecretKey = "SPLUNK_DEFAULTS_S3_SECRET_KEY"
)

// DiscoverGroups 从 <ROLE>_URL 环境变量发现主机组
// 主机按逗号拆分，去掉首尾空白和 :port 后缀，没有任何主机的变量被忽略
func DiscoverGroups(env environ.Env) derive.HostGroups {
	known := make(map[string]bool, len(RoleNames))
	for _, name := range RoleNames {
		known[name] = true
	}

	groups := derive.HostGroups{}
	for _, kv := range env.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		m := groupVarPattern.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		name := strings.ToLower(m[1])
		if !known[name] {
			continue
		}

		var hosts []string
		for _, host := range strings.Split(value, ",") {
			host = strings.TrimSpace(host)
			if i := strings.Index(host, ":"); i >= 0 {
				host = host[:i]
			}
			if host != "" {
				hosts = append(hosts, host)
			}
		}
		if len(hosts) > 0 {
			groups[name] = derive.HostGroup{Hosts: hosts}
		}
	}
	return groups
}

// S3SettingsFromEnv 读取 S3 片段来源的连接参数
func S3SettingsFromEnv(env environ.Env) fetch.S3Settings {
	return fetch.S3Settings{
		Region:    environ.Get(env, EnvS3Region, ""),
		Endpoint:  environ.Get(env, EnvS3Endpoint, ""),
		AccessKey: environ.Get(env, EnvS3AccessKey, ""),
		SecretKey: environ.Get(env, EnvS3SecretKey, ""),
	}
}

// Options Manager 参数
type Options struct {
	Env   environ.Env
	Facts facts.Facts
	// BaseFS 基础配置文件系统，为 nil 时使用内置文件
	BaseFS        fs.FS
	Fetcher       defaults.Fetcher
	HTTPClient    *resty.Client
	SplunkbaseURL string
	Recorder      *metrics.Recorder
}

// Manager 是 Inventory 管理器，负责一次完整的解析
type Manager struct {
	opts Options
}

// NewManager 创建一个新的 Manager
func NewManager(opts Options) *Manager {
	if opts.Env == nil {
		opts.Env = environ.OSEnv{}
	}
	if opts.Facts.Platform == "" {
		opts.Facts.Platform = facts.PlatformLinux
	}
	return &Manager{opts: opts}
}

// Build 依次执行主机组发现、默认配置加载、环境变量覆盖和字段派生，组装 inventory
// 任一阶段失败都会中止整个解析
func (m *Manager) Build(ctx context.Context) (*Inventory, error) {
	runID := uuid.NewString()
	log := logger.WithRun(runID)
	rec := m.opts.Recorder
	env := m.opts.Env

	log.Info().Str("platform", m.opts.Facts.Platform).Str("hostname", m.opts.Facts.Hostname).Msg("resolving inventory")

	done := rec.Time("discover")
	groups := DiscoverGroups(env)
	done()
	for _, name := range sortedGroupNames(groups) {
		log.Debug().Str("group", name).Strs("hosts", groups[name].Hosts).Msg("discovered host group")
	}

	done = rec.Time("defaults")
	layers, err := m.loader(log).LoadLayers(ctx)
	done()
	if err != nil {
		log.Error().Err(err).Msg("load defaults failed")
		return nil, err
	}
	vars := layers.Vars

	done = rec.Time("environ")
	err = environ.Resolve(vars, env)
	done()
	if err != nil {
		return nil, err
	}

	dc := derive.NewContext(env, groups)
	dc.Ctx = ctx
	dc.Platform = m.opts.Facts.Platform
	dc.Hostname = m.opts.Facts.Hostname
	if m.opts.HTTPClient != nil {
		dc.HTTPClient = m.opts.HTTPClient
	}
	if m.opts.SplunkbaseURL != "" {
		dc.SplunkbaseURL = m.opts.SplunkbaseURL
	}

	done = rec.Time("derive")
	err = derive.All(vars, dc)
	done()
	if err != nil {
		log.Error().Err(err).Msg("derive fields failed")
		return nil, err
	}

	inv := NewInventory()
	inv.All.Vars = vars
	inv.Groups = groups

	if m.opts.Facts.InContainer {
		inv.All.Hosts = appendUnique(inv.All.Hosts, "localhost")
		hostvars := tree.Clone(layers.Host)
		if hostvars == nil {
			hostvars = tree.Tree{}
		}
		hostvars["ansible_connection"] = "local"
		inv.HostVars["localhost"] = hostvars
	}

	log.Info().Int("groups", len(groups)).Int("sources", len(layers.Applied)).Msg("inventory resolved")
	return inv, nil
}

func (m *Manager) loader(log zerolog.Logger) *defaults.Loader {
	fetcher := m.opts.Fetcher
	if fetcher == nil {
		opts := []fetch.Option{
			fetch.WithS3Settings(S3SettingsFromEnv(m.opts.Env)),
			fetch.WithLogger(log),
		}
		if m.opts.Recorder != nil {
			opts = append(opts, fetch.WithObserver(m.opts.Recorder))
		}
		fetcher = fetch.New(opts...)
	}
	return defaults.NewLoader(defaults.Options{
		Env:      m.opts.Env,
		Platform: m.opts.Facts.Platform,
		Hostname: m.opts.Facts.Hostname,
		BaseFS:   m.opts.BaseFS,
		Fetcher:  fetcher,
		Logger:   &log,
	})
}

func sortedGroupNames(groups derive.HostGroups) []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func appendUnique(list []string, item string) []string {
	for _, s := range list {
		if s == item {
			return list
		}
	}
	return append(list, item)
}
