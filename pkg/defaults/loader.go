// Package defaults 加载内置基础配置，并按 base → baked → env → host 的顺序合并补充片段
package defaults

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/jimyag/splunk-inventory/pkg/environ"
	"github.com/jimyag/splunk-inventory/pkg/errors"
	"github.com/jimyag/splunk-inventory/pkg/fetch"
	"github.com/jimyag/splunk-inventory/pkg/logger"
	"github.com/jimyag/splunk-inventory/pkg/tree"
)

//go:embed files/*.yml
var bundled embed.FS

// Bundled 返回内置基础配置文件系统，文件位于根目录
func Bundled() fs.FS {
	sub, err := fs.Sub(bundled, "files")
	if err != nil {
		panic(err)
	}
	return sub
}

// Bucket 补充片段的优先级分组
type Bucket string

const (
	BucketBaked Bucket = "baked"
	BucketEnv   Bucket = "env"
	BucketHost  Bucket = "host"
)

// RoleUniversalForwarder 使用 forwarder 基础配置的角色
const RoleUniversalForwarder = "splunk_universal_forwarder"

// 获取参数的环境变量覆盖
const (
	EnvMaxRetries = "SPLUNK_DEFAULTS_HTTP_MAX_RETRIES"
	EnvMaxDelay   = "SPLUNK_DEFAULTS_HTTP_MAX_DELAY"
	EnvMaxTimeout = "SPLUNK_DEFAULTS_HTTP_MAX_TIMEOUT"
	EnvVerify     = "SPLUNK_DEFAULTS_HTTPS_VERIFY"
)

// SourceDescriptor 一个待获取的片段位置及其所属分组
type SourceDescriptor struct {
	Key Bucket
	Src string
}

// Fetcher 片段获取能力
type Fetcher interface {
	Fetch(ctx context.Context, req fetch.Request) ([]byte, error)
}

// Options Loader 参数
type Options struct {
	Env      environ.Env
	Platform string
	Hostname string
	// BaseFS 基础配置所在文件系统，为 nil 时使用内置文件
	BaseFS  fs.FS
	Fetcher Fetcher
	Logger  *zerolog.Logger
}

// Layers 加载结果
type Layers struct {
	// Vars 全部分组合并后的配置树
	Vars tree.Tree
	// Host 仅由 host 分组片段合并出的配置，用于主机级 hostvars
	Host tree.Tree
	// Applied 按合并顺序记录实际生效的来源
	Applied []SourceDescriptor
}

// Loader 基础配置加载器
type Loader struct {
	env      environ.Env
	platform string
	hostname string
	baseFS   fs.FS
	fetcher  Fetcher
	log      zerolog.Logger
}

// NewLoader 创建 Loader
func NewLoader(opts Options) *Loader {
	l := &Loader{
		env:      opts.Env,
		platform: opts.Platform,
		hostname: opts.Hostname,
		baseFS:   opts.BaseFS,
		fetcher:  opts.Fetcher,
		log:      logger.Logger,
	}
	if l.env == nil {
		l.env = environ.OSEnv{}
	}
	if l.platform == "" {
		l.platform = "linux"
	}
	if l.baseFS == nil {
		l.baseFS = Bundled()
	}
	if l.fetcher == nil {
		l.fetcher = fetch.New()
	}
	if opts.Logger != nil {
		l.log = *opts.Logger
	}
	return l
}

// BaseFileName 按角色和平台选择基础配置文件名
func BaseFileName(role, platform string) string {
	if role == RoleUniversalForwarder {
		return "splunkforwarder_defaults_" + platform + ".yml"
	}
	return "splunk_defaults_" + platform + ".yml"
}

// Load 返回合并后的配置树
func (l *Loader) Load(ctx context.Context) (tree.Tree, error) {
	layers, err := l.LoadLayers(ctx)
	if err != nil {
		return nil, err
	}
	return layers.Vars, nil
}

// LoadLayers 依次加载 base、baked、env、host 并合并
// 任一片段获取失败都会中止整个加载
func (l *Loader) LoadLayers(ctx context.Context) (*Layers, error) {
	base, err := l.LoadBase()
	if err != nil {
		return nil, err
	}
	layers := &Layers{Vars: base, Host: tree.Tree{}}

	cfg, _ := base["config"].(tree.Tree)
	if len(cfg) == 0 {
		l.log.Debug().Msg("no config section in base defaults, skipping supplementary sources")
		return layers, nil
	}

	for _, src := range BakedSources(cfg) {
		if !bakedExists(src.Src) {
			l.log.Debug().Str("path", src.Src).Msg("baked defaults not found, skipping")
			continue
		}
		if err := l.apply(ctx, layers, src, cfg); err != nil {
			return nil, err
		}
	}

	// env 和 host 的来源取自已合并 baked 之后的 config
	cfg, _ = layers.Vars["config"].(tree.Tree)
	for _, src := range EnvSources(cfg, l.env, l.platform) {
		if err := l.apply(ctx, layers, src, cfg); err != nil {
			return nil, err
		}
	}

	for _, src := range HostSources(cfg, l.hostname, l.platform) {
		if err := l.apply(ctx, layers, src, cfg); err != nil {
			return nil, err
		}
	}

	return layers, nil
}

// 远程 baked 位置总是尝试获取，本地文件不存在时跳过
func bakedExists(location string) bool {
	if fetch.Scheme(location) != fetch.SchemeFile {
		return true
	}
	_, err := os.Stat(strings.TrimPrefix(location, "file://"))
	return err == nil
}

// LoadBase 读取并解析基础配置
func (l *Loader) LoadBase() (tree.Tree, error) {
	role, _ := l.env.LookupEnv("SPLUNK_ROLE")
	name := BaseFileName(role, l.platform)

	data, err := fs.ReadFile(l.baseFS, name)
	if err != nil {
		return nil, errors.NewFetchError(name, 1, err)
	}
	base, err := Parse(name, data)
	if err != nil {
		return nil, err
	}
	l.log.Debug().Str("file", name).Msg("loaded base defaults")
	return base, nil
}

func (l *Loader) apply(ctx context.Context, layers *Layers, src SourceDescriptor, cfg tree.Tree) error {
	req, err := RequestFor(cfg, src, l.env)
	if err != nil {
		return err
	}

	data, err := l.fetcher.Fetch(ctx, req)
	if err != nil {
		return err
	}
	fragment, err := Parse(src.Src, data)
	if err != nil {
		return err
	}

	tree.Merge(layers.Vars, fragment)
	if src.Key == BucketHost {
		tree.Merge(layers.Host, tree.Clone(fragment))
	}
	layers.Applied = append(layers.Applied, src)
	l.log.Info().Str("bucket", string(src.Key)).Str("source", src.Src).Msg("merged defaults")
	return nil
}

// Parse 把 YAML 片段解析为配置树，空文档返回空树
func Parse(source string, data []byte) (tree.Tree, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewParseError(source, err)
	}
	if raw == nil {
		return tree.Tree{}, nil
	}
	t, ok := tree.Normalize(raw).(tree.Tree)
	if !ok {
		return nil, errors.NewParseError(source, errNotMapping)
	}
	return t, nil
}

var errNotMapping = pkgerrors.New("document is not a mapping")

// BakedSources 由 config.baked 和 config.defaults_dir 生成 baked 来源
func BakedSources(cfg tree.Tree) []SourceDescriptor {
	baked := tree.String(cfg, "baked")
	dir := tree.String(cfg, "defaults_dir")

	var out []SourceDescriptor
	for _, name := range fetch.SplitLocations(baked) {
		loc := name
		if fetch.Scheme(name) == fetch.SchemeFile && !filepath.IsAbs(name) && !isWindowsAbs(name) {
			loc = joinDir(dir, name)
		}
		out = append(out, SourceDescriptor{Key: BucketBaked, Src: loc})
	}
	return out
}

func isWindowsAbs(p string) bool {
	return len(p) > 2 && p[1] == ':' && (p[2] == '\\' || p[2] == '/')
}

func joinDir(dir, name string) string {
	if dir == "" {
		return name
	}
	if isWindowsAbs(dir) {
		return strings.TrimRight(dir, `\/`) + `\` + name
	}
	return path.Join(filepath.ToSlash(dir), name)
}

// EnvSources 读取 config.env.var 指向的环境变量，按逗号拆分为 env 来源
func EnvSources(cfg tree.Tree, env environ.Env, platform string) []SourceDescriptor {
	varName := strings.TrimSpace(tree.String(cfg, "env.var"))
	if varName == "" {
		return nil
	}
	raw, ok := env.LookupEnv(varName)
	if !ok {
		return nil
	}

	vars := map[string]string{"platform": platform}
	var out []SourceDescriptor
	for _, loc := range fetch.SplitLocations(raw) {
		out = append(out, SourceDescriptor{Key: BucketEnv, Src: fetch.ExpandTemplate(loc, vars)})
	}
	return out
}

// HostSources 由 config.host.url 模板生成 host 来源，hostname 为空时没有 host 来源
func HostSources(cfg tree.Tree, hostname, platform string) []SourceDescriptor {
	if hostname == "" {
		return nil
	}
	vars := map[string]string{"hostname": hostname, "platform": platform}
	var out []SourceDescriptor
	for _, tmpl := range fetch.SplitLocations(tree.String(cfg, "host.url")) {
		out = append(out, SourceDescriptor{Key: BucketHost, Src: fetch.ExpandTemplate(tmpl, vars)})
	}
	return out
}

// RequestFor 组装获取请求，重试、超时和 TLS 校验的环境变量覆盖优先于配置树中的值
func RequestFor(cfg tree.Tree, src SourceDescriptor, env environ.Env) (fetch.Request, error) {
	req := fetch.Request{Location: src.Src, Bucket: string(src.Key), Verify: true}

	maxRetries, err := intSetting(cfg, "max_retries", EnvMaxRetries, env, 3)
	if err != nil {
		return req, err
	}
	maxDelay, err := intSetting(cfg, "max_delay", EnvMaxDelay, env, 60)
	if err != nil {
		return req, err
	}
	maxTimeout, err := intSetting(cfg, "max_timeout", EnvMaxTimeout, env, 1200)
	if err != nil {
		return req, err
	}
	req.Policy = fetch.PolicyFromRetries(maxRetries, time.Duration(maxDelay)*time.Second)
	req.Timeout = time.Duration(maxTimeout) * time.Second

	bucket := string(src.Key)
	if v, ok := env.LookupEnv(EnvVerify); ok {
		if req.Verify, err = environ.ParseBool(EnvVerify, v); err != nil {
			return req, err
		}
	} else if v, ok := tree.Lookup(cfg, bucket+".verify"); ok && v != nil {
		if req.Verify, err = environ.ToBool(bucket+".verify", v); err != nil {
			return req, err
		}
	}

	if h, ok := tree.Lookup(cfg, bucket+".headers"); ok {
		if headers, ok := h.(tree.Tree); ok && len(headers) > 0 {
			req.Headers = make(map[string]string, len(headers))
			for k, v := range headers {
				req.Headers[k] = fmt.Sprint(v)
			}
		}
	}
	return req, nil
}

func intSetting(cfg tree.Tree, key, envVar string, env environ.Env, def int) (int, error) {
	if v, ok := env.LookupEnv(envVar); ok {
		return environ.ToInt(envVar, v)
	}
	v, ok := tree.Lookup(cfg, key)
	if !ok || v == nil {
		return def, nil
	}
	return environ.ToInt("config."+key, v)
}
