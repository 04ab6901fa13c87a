// Package environ 把 SPLUNK_* 环境变量按声明式字段表覆盖到配置树上
package environ

import (
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/jimyag/splunk-inventory/pkg/errors"
)

// Env 环境变量来源
type Env interface {
	LookupEnv(key string) (string, bool)
	// Environ 返回 KEY=VALUE 形式的全部变量
	Environ() []string
}

// OSEnv 进程环境变量
type OSEnv struct{}

func (OSEnv) LookupEnv(key string) (string, bool) { return os.LookupEnv(key) }

func (OSEnv) Environ() []string { return os.Environ() }

// MapEnv 基于 map 的环境变量，测试和 env 文件使用
type MapEnv map[string]string

func (m MapEnv) LookupEnv(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m MapEnv) Environ() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+m[k])
	}
	return out
}

// LayeredEnv 先查 Primary，未设置时再查 Fallback
type LayeredEnv struct {
	Primary  Env
	Fallback Env
}

func (l LayeredEnv) LookupEnv(key string) (string, bool) {
	if v, ok := l.Primary.LookupEnv(key); ok {
		return v, true
	}
	return l.Fallback.LookupEnv(key)
}

func (l LayeredEnv) Environ() []string {
	seen := make(map[string]bool)
	var out []string
	for _, kv := range l.Primary.Environ() {
		k, _, _ := strings.Cut(kv, "=")
		seen[k] = true
		out = append(out, kv)
	}
	for _, kv := range l.Fallback.Environ() {
		k, _, _ := strings.Cut(kv, "=")
		if !seen[k] {
			out = append(out, kv)
		}
	}
	return out
}

// Load 返回进程环境，传入的 env 文件作为补充，进程中已有的变量优先
func Load(files ...string) (Env, error) {
	var paths []string
	for _, f := range files {
		if f = strings.TrimSpace(f); f != "" {
			paths = append(paths, f)
		}
	}
	if len(paths) == 0 {
		return OSEnv{}, nil
	}

	values, err := godotenv.Read(paths...)
	if err != nil {
		return nil, errors.NewParseError(strings.Join(paths, ","), err)
	}
	return LayeredEnv{Primary: OSEnv{}, Fallback: MapEnv(values)}, nil
}

// Present 变量已设置且非空
func Present(env Env, key string) bool {
	v, ok := env.LookupEnv(key)
	return ok && v != ""
}

// Get 返回变量值，未设置时返回 def
func Get(env Env, key, def string) string {
	if v, ok := env.LookupEnv(key); ok {
		return v
	}
	return def
}
