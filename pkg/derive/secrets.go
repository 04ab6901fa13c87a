package derive

import (
	"os"
	"strings"

	"github.com/jimyag/splunk-inventory/pkg/environ"
	"github.com/jimyag/splunk-inventory/pkg/errors"
	"github.com/jimyag/splunk-inventory/pkg/tree"
)

// Secrets 校验管理员密码
// 密码为已存在的文件路径时，使用文件内容（去掉首尾空白）作为密码
func Secrets(t tree.Tree, c *Context) error {
	s, err := splunk(t)
	if err != nil {
		return err
	}

	if raw, ok := c.env().LookupEnv("SPLUNK_PASSWORD"); ok {
		s["password"] = raw
	}
	password := tree.String(s, "password")
	if password == "" {
		return errors.NewConfigurationError("Splunk password must be supplied!")
	}

	if info, err := os.Stat(password); err == nil && !info.IsDir() {
		data, err := os.ReadFile(password)
		if err != nil {
			return errors.NewConfigurationErrorf("splunk.password", "unable to read password file %s: %v", password, err)
		}
		password = strings.TrimSpace(string(data))
		if password == "" {
			return errors.NewConfigurationError("Splunk password supplied is empty/null")
		}
		s["password"] = password
	}
	return nil
}

var splunkdSSLFields = []environ.Field{
	{Path: "enable", EnvVar: "SPLUNKD_SSL_ENABLE", Kind: environ.Bool, Default: true},
	{Path: "cert", EnvVar: "SPLUNKD_SSL_CERT", Kind: environ.String},
	{Path: "ca", EnvVar: "SPLUNKD_SSL_CA", Kind: environ.String},
	{Path: "password", EnvVar: "SPLUNKD_SSL_PASSWORD", Kind: environ.String},
}

var validSSLEnablement = map[string]bool{"auto": true, "strict": true, "ignore": true}

// SplunkdSSL 解析 splunkd 管理端口的 SSL 配置，并据此设置 cert_prefix
func SplunkdSSL(t tree.Tree, c *Context) error {
	ssl, err := resolveSection(t, c, "splunk.ssl", splunkdSSLFields)
	if err != nil {
		return err
	}
	if ssl["enable"] == true {
		t["cert_prefix"] = "https"
	} else {
		t["cert_prefix"] = "http"
	}

	if v := tree.String(t, "splunk.es.ssl_enablement"); v != "" && !validSSLEnablement[strings.ToLower(v)] {
		return errors.NewConfigurationErrorf("SPLUNK_ES_SSL_ENABLEMENT",
			"Invalid SSL enablement %q supplied, must be one of auto, strict or ignore", v)
	}
	return nil
}

var splunkWebSSLFields = []environ.Field{
	{Path: "http_enableSSL", EnvVar: "SPLUNK_HTTP_ENABLESSL", Kind: environ.Bool, Default: false},
	{Path: "http_enableSSL_cert", EnvVar: "SPLUNK_HTTP_ENABLESSL_CERT", Kind: environ.String},
	{Path: "http_enableSSL_privKey", EnvVar: "SPLUNK_HTTP_ENABLESSL_PRIVKEY", Kind: environ.String},
	{Path: "http_enableSSL_privKey_password", EnvVar: "SPLUNK_HTTP_ENABLESSL_PRIVKEY_PASSWORD", Kind: environ.String},
}

// SplunkWebSSL 解析 Splunk Web 的 SSL 配置
func SplunkWebSSL(t tree.Tree, c *Context) error {
	_, err := resolveSection(t, c, "splunk", splunkWebSSLFields)
	return err
}
