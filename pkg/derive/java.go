package derive

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jimyag/splunk-inventory/pkg/environ"
	"github.com/jimyag/splunk-inventory/pkg/errors"
	"github.com/jimyag/splunk-inventory/pkg/tree"
)

type javaRelease struct {
	defaultURL string
	token      *regexp.Regexp
}

var javaReleases = map[string]*javaRelease{
	"oracle:8": {
		defaultURL: "https://download.oracle.com/otn-pub/java/jdk/8u141-b15/336fa29ff2bb4ef291e347e091f7f4a7/jdk-8u141-linux-x64.tar.gz",
		token:      regexp.MustCompile(`jdk-8u(\d+)-linux-x64\.tar\.gz`),
	},
	"openjdk:8": nil,
	"openjdk:9": nil,
	"openjdk:11": {
		defaultURL: "https://download.java.net/java/GA/jdk11/9/GPL/openjdk-11.0.2_linux-x64_bin.tar.gz",
		token:      regexp.MustCompile(`openjdk-(\d+\.\d+\.\d+)_linux-x64_bin\.tar\.gz`),
	},
}

// SupportedJavaVersions 返回白名单
func SupportedJavaVersions() []string {
	out := make([]string, 0, len(javaReleases))
	for v := range javaReleases {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Java 校验 JAVA_VERSION 并推导下载地址和更新版本号
func Java(t tree.Tree, c *Context) error {
	env := c.env()
	version := strings.ToLower(strings.TrimSpace(environ.Get(env, "JAVA_VERSION", tree.String(t, "java_version"))))
	downloadURL := environ.Get(env, "JAVA_DOWNLOAD_URL", tree.String(t, "java_download_url"))

	t["java_version"] = nil
	t["java_download_url"] = nil
	t["java_update_version"] = nil
	if version == "" {
		return nil
	}

	release, ok := javaReleases[version]
	if !ok {
		return errors.NewConfigurationErrorf("JAVA_VERSION", "Invalid Java version supplied, must be one of %s",
			strings.Join(SupportedJavaVersions(), ", "))
	}
	t["java_version"] = version

	if release == nil {
		if downloadURL != "" {
			t["java_download_url"] = downloadURL
		}
		return nil
	}

	if downloadURL == "" {
		downloadURL = release.defaultURL
	}
	m := release.token.FindStringSubmatch(downloadURL)
	if m == nil {
		return errors.NewConfigurationErrorf("JAVA_DOWNLOAD_URL", "Invalid Java download URL format")
	}
	t["java_download_url"] = downloadURL
	t["java_update_version"] = m[1]
	return nil
}
