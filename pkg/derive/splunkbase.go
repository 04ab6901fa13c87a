package derive

import (
	"net/http"
	"regexp"

	"github.com/go-resty/resty/v2"
	pkgerrors "github.com/pkg/errors"

	"github.com/jimyag/splunk-inventory/pkg/errors"
	"github.com/jimyag/splunk-inventory/pkg/tree"
)

var splunkbaseTokenPattern = regexp.MustCompile(`(?i)<id>(.*)</id>`)

// SplunkbaseToken 用户名和密码都存在时登录 Splunkbase，并保存会话 token
func SplunkbaseToken(t tree.Tree, c *Context) error {
	username := tree.String(t, "splunkbase_username")
	password := tree.String(t, "splunkbase_password")
	if username == "" || password == "" {
		return nil
	}

	loginURL := DefaultSplunkbaseURL
	var client *resty.Client
	if c != nil {
		if c.SplunkbaseURL != "" {
			loginURL = c.SplunkbaseURL
		}
		client = c.HTTPClient
	}
	if client == nil {
		client = resty.New()
	}

	resp, err := client.R().
		SetContext(c.requestContext()).
		SetFormData(map[string]string{"username": username, "password": password}).
		Post(loginURL)
	if err != nil {
		return pkgerrors.Wrap(err, "splunkbase login")
	}
	if resp.StatusCode() != http.StatusOK {
		return errors.NewConfigurationError("Invalid Splunkbase credentials - will not download apps from Splunkbase")
	}

	if m := splunkbaseTokenPattern.FindSubmatch(resp.Body()); m != nil {
		t["splunkbase_token"] = string(m[1])
	} else {
		t["splunkbase_token"] = nil
	}
	return nil
}
