package derive

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/jimyag/splunk-inventory/pkg/environ"
	"github.com/jimyag/splunk-inventory/pkg/tree"
)

// 拓扑开关对应的环境变量
var topologyFlags = []struct {
	key    string
	envVar string
}{
	{key: "license_master_included", envVar: "SPLUNK_LICENSE_MASTER_URL"},
	{key: "deployer_included", envVar: "SPLUNK_DEPLOYER_URL"},
	{key: "indexer_cluster", envVar: "SPLUNK_CLUSTER_MASTER_URL"},
	{key: "search_head_cluster", envVar: "SPLUNK_SEARCH_HEAD_CAPTAIN_URL"},
}

// DistributedTopology 设置拓扑开关和各角色入口地址
func DistributedTopology(t tree.Tree, c *Context) error {
	s, err := splunk(t)
	if err != nil {
		return err
	}
	env := c.env()

	for _, flag := range topologyFlags {
		s[flag.key] = environ.Present(env, flag.envVar)
	}

	for key, envVar := range map[string]string{
		"license_master_url": "SPLUNK_LICENSE_MASTER_URL",
		"cluster_master_url": "SPLUNK_CLUSTER_MASTER_URL",
	} {
		raw := environ.Get(env, envVar, tree.String(s, key))
		s[key] = ParseURL(raw, t)
	}

	for key, envVar := range map[string]string{
		"deployer_url":            "SPLUNK_DEPLOYER_URL",
		"search_head_captain_url": "SPLUNK_SEARCH_HEAD_CAPTAIN_URL",
	} {
		if raw, ok := env.LookupEnv(envVar); ok {
			s[key] = raw
		} else if _, exists := s[key]; !exists {
			s[key] = nil
		}
	}
	return nil
}

// ParseURL 把主机名、host:port 或完整 URL 规范为 scheme://host:port
// 去掉内嵌的认证信息和路径，缺省协议取 scope 的 cert_prefix，缺省或空端口取 splunk.svc_port
func ParseURL(raw string, scope tree.Tree) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	scheme := tree.String(scope, "cert_prefix")
	if scheme == "" {
		scheme = "https"
	}
	port := tree.String(scope, "splunk.svc_port")
	if port == "" {
		port = "8089"
	}

	if !strings.Contains(raw, "://") {
		raw = scheme + "://" + raw
	}

	var host string
	if u, err := url.Parse(raw); err == nil {
		scheme, host = u.Scheme, u.Host
	} else {
		// url.Parse 拒绝的端口（如非数字）原样保留
		idx := strings.Index(raw, "://")
		scheme, host = raw[:idx], raw[idx+3:]
		if i := strings.IndexAny(host, "/?#"); i >= 0 {
			host = host[:i]
		}
		if i := strings.LastIndex(host, "@"); i >= 0 {
			host = host[i+1:]
		}
	}

	hostname, p, err := net.SplitHostPort(host)
	if err != nil {
		// 没有端口，或者是未加方括号的 IPv6 地址
		hostname, p = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]"), ""
	}
	if p == "" {
		p = port
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(hostname, p))
}

// Licenses license_uri 缺省为占位文件名 splunk.lic，包含 * 时视为通配许可证
func Licenses(t tree.Tree, c *Context) error {
	s, err := splunk(t)
	if err != nil {
		return err
	}
	uri := environ.Get(c.env(), "SPLUNK_LICENSE_URI", tree.String(s, "license_uri"))
	if uri == "" {
		uri = "splunk.lic"
	}
	s["license_uri"] = uri
	s["wildcard_license"] = strings.Contains(uri, "*")
	return nil
}
