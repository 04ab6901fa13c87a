// Package redact 在配置树输出或落盘前遮盖敏感字段
package redact

import (
	"strings"

	"github.com/jimyag/splunk-inventory/pkg/tree"
)

// Mask 固定 14 个字符的遮盖串
const Mask = "**************"

// Paths 需要遮盖的字段，相对于 all.vars
var Paths = []string{
	"splunk.password",
	"splunk.pass4SymmKey",
	"splunk.secret",
	"splunk.shc.secret",
	"splunk.shc.pass4SymmKey",
	"splunk.idxc.secret",
	"splunk.idxc.pass4SymmKey",
	"splunk.idxc.discoveryPass4SymmKey",
	"splunk.ssl.password",
	"splunk.http_enableSSL_privKey_password",
	"splunk.hec.ssl_password",
	"splunkbase_password",
	"splunkbase_token",
}

var s3Keys = []string{"access_key", "secret_key"}

// Redact 原地遮盖 vars 中的敏感字段并返回 vars
// 只替换存在且非空的值，不删除键，重复调用结果不变
func Redact(vars tree.Tree) tree.Tree {
	if vars == nil {
		return nil
	}
	for _, path := range Paths {
		maskPath(vars, path)
	}
	for _, index := range smartstoreIndexes(vars) {
		for _, key := range s3Keys {
			maskPath(index, "s3."+key)
		}
	}
	return vars
}

// maskPath 在值所在的 map 上直接替换，中间节点不是 map 时不做任何修改
func maskPath(t tree.Tree, path string) {
	parent, key := t, path
	if i := strings.LastIndex(path, "."); i >= 0 {
		v, ok := tree.Lookup(t, path[:i])
		if !ok {
			return
		}
		m, ok := v.(tree.Tree)
		if !ok {
			return
		}
		parent, key = m, path[i+1:]
	}
	if v, ok := parent[key]; ok && !isEmpty(v) {
		parent[key] = Mask
	}
}

func isEmpty(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	default:
		return false
	}
}

// smartstoreIndexes 兼容 splunk.smartstore 为列表和 splunk.smartstore.index 为列表两种写法
func smartstoreIndexes(vars tree.Tree) []tree.Tree {
	var out []tree.Tree
	collect := func(v interface{}) {
		list, ok := tree.AsList(v)
		if !ok {
			return
		}
		for _, item := range list {
			if index, ok := item.(tree.Tree); ok {
				out = append(out, index)
			}
		}
	}

	smartstore, ok := tree.Lookup(vars, "splunk.smartstore")
	if !ok {
		return nil
	}
	collect(smartstore)
	if m, ok := smartstore.(tree.Tree); ok {
		collect(m["index"])
	}
	return out
}
