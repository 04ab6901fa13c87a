package environ

import (
	"github.com/jimyag/splunk-inventory/pkg/tree"
)

// Field 一个可被环境变量覆盖的配置项
type Field struct {
	Path    string // 点分路径，相对于被解析的树
	EnvVar  string
	Kind    Kind
	Default interface{}
}

// Catalog 返回顶层变量表，密码类字段排在最前面
func Catalog() []Field {
	return []Field{
		{Path: "splunk.password", EnvVar: "SPLUNK_PASSWORD", Kind: String},
		{Path: "splunk.pass4SymmKey", EnvVar: "SPLUNK_PASS4SYMMKEY", Kind: String},
		{Path: "splunk.secret", EnvVar: "SPLUNK_SECRET", Kind: String},

		{Path: "splunk.role", EnvVar: "SPLUNK_ROLE", Kind: String, Default: "splunk_standalone"},
		{Path: "splunk.opt", EnvVar: "SPLUNK_OPT", Kind: String},
		{Path: "splunk.home", EnvVar: "SPLUNK_HOME", Kind: String},
		{Path: "splunk.exec", EnvVar: "SPLUNK_EXEC", Kind: String},
		{Path: "splunk.pid", EnvVar: "SPLUNK_PID", Kind: String},
		{Path: "splunk.user", EnvVar: "SPLUNK_USER", Kind: String},
		{Path: "splunk.group", EnvVar: "SPLUNK_GROUP", Kind: String},
		{Path: "splunk.hostname", EnvVar: "SPLUNK_HOSTNAME", Kind: String},
		{Path: "splunk.svc_port", EnvVar: "SPLUNK_SVC_PORT", Kind: Int, Default: 8089},
		{Path: "splunk.s2s_port", EnvVar: "SPLUNK_S2S_PORT", Kind: Int, Default: 9997},
		{Path: "splunk.http_port", EnvVar: "SPLUNK_HTTP_PORT", Kind: Int, Default: 8000},
		{Path: "splunk.enable_service", EnvVar: "SPLUNK_ENABLE_SERVICE", Kind: Bool, Default: false},
		{Path: "splunk.service_name", EnvVar: "SPLUNK_SERVICE_NAME", Kind: String},
		{Path: "splunk.allow_upgrade", EnvVar: "SPLUNK_ALLOW_UPGRADE", Kind: Bool, Default: true},
		{Path: "splunk.upgrade", EnvVar: "SPLUNK_UPGRADE", Kind: Bool, Default: false},
		{Path: "splunk.connection_timeout", EnvVar: "SPLUNK_CONNECTION_TIMEOUT", Kind: Int, Default: 0},
		{Path: "splunk.declarative_admin_password", EnvVar: "SPLUNK_DECLARATIVE_ADMIN_PASSWORD", Kind: Bool, Default: false},
		{Path: "splunk.disable_popups", EnvVar: "SPLUNK_DISABLE_POPUPS", Kind: Bool, Default: false},
		{Path: "splunk.asan", EnvVar: "SPLUNK_ENABLE_ASAN", Kind: Bool, Default: false},
		{Path: "splunk.dynamic", EnvVar: "SPLUNK_DYNAMIC", Kind: Bool, Default: false},
		{Path: "splunk.nfr_license", EnvVar: "SPLUNK_NFR_LICENSE", Kind: String, Default: "/tmp/nfr_enterprise.lic"},
		{Path: "splunk.ignore_license", EnvVar: "SPLUNK_IGNORE_LICENSE", Kind: Bool, Default: false},
		{Path: "splunk.license_download_dest", EnvVar: "SPLUNK_LICENSE_INSTALL_PATH", Kind: String, Default: "/tmp/splunk.lic"},
		{Path: "splunk.build_location", EnvVar: "SPLUNK_BUILD_URL", Kind: String},
		{Path: "splunk.build_url_bearer_token", EnvVar: "SPLUNK_BUILD_URL_BEARER_TOKEN", Kind: String},
		{Path: "splunk.deployment_server", EnvVar: "SPLUNK_DEPLOYMENT_SERVER", Kind: String},
		{Path: "splunk.add", EnvVar: "SPLUNK_ADD", Kind: List},
		{Path: "splunk.before_start_cmd", EnvVar: "SPLUNK_BEFORE_START_CMD", Kind: List},
		{Path: "splunk.cmd", EnvVar: "SPLUNK_CMD", Kind: List},
		{Path: "splunk.es.ssl_enablement", EnvVar: "SPLUNK_ES_SSL_ENABLEMENT", Kind: String},
		{Path: "ansible_pre_tasks", EnvVar: "SPLUNK_ANSIBLE_PRE_TASKS", Kind: List},
		{Path: "ansible_post_tasks", EnvVar: "SPLUNK_ANSIBLE_POST_TASKS", Kind: List},
		{Path: "docker_monitoring", EnvVar: "DOCKER_MONITORING", Kind: Bool, Default: false},
		{Path: "splunk_home_ownership_enforcement", EnvVar: "SPLUNK_HOME_OWNERSHIP_ENFORCEMENT", Kind: Bool, Default: true},
		{Path: "hide_password", EnvVar: "HIDE_PASSWORD", Kind: Bool, Default: false},
		{Path: "splunkbase_username", EnvVar: "SPLUNKBASE_USERNAME", Kind: String},
		{Path: "splunkbase_password", EnvVar: "SPLUNKBASE_PASSWORD", Kind: String},
	}
}

// Value 解析单个字段：环境变量已设置（包括空串）时用环境变量，否则用树中已有值，再否则用默认值
func (f Field) Value(t tree.Tree, env Env) (interface{}, error) {
	if raw, ok := env.LookupEnv(f.EnvVar); ok {
		return Coerce(f.EnvVar, f.Kind, raw)
	}
	if v, ok := tree.Lookup(t, f.Path); ok && v != nil {
		return Coerce(f.Path, f.Kind, v)
	}
	return Coerce(f.Path, f.Kind, cloneDefault(f.Default))
}

func cloneDefault(v interface{}) interface{} {
	if l, ok := v.([]interface{}); ok {
		return append([]interface{}{}, l...)
	}
	return v
}

// ResolveFields 按顺序解析字段并写回树
func ResolveFields(t tree.Tree, env Env, fields []Field) error {
	for _, f := range fields {
		v, err := f.Value(t, env)
		if err != nil {
			return err
		}
		if err := tree.Set(t, f.Path, v); err != nil {
			return err
		}
	}
	return nil
}

// Resolve 按顶层变量表解析
func Resolve(t tree.Tree, env Env) error {
	return ResolveFields(t, env, Catalog())
}
