// Package tree 提供配置树（嵌套 map）的合并与路径访问
package tree

import (
	"fmt"
	"strings"
)

// Tree 配置树，键为字符串，值为 string/int/bool/列表/嵌套 Tree
type Tree = map[string]interface{}

// UnknownPathError 路径不存在或中间节点不是 map
type UnknownPathError struct {
	Path    string
	Segment string
}

func (e *UnknownPathError) Error() string {
	return fmt.Sprintf("unknown config path %q (missing %q)", e.Path, e.Segment)
}

// Merge 将 src 深度合并到 dst 并返回 dst
// 两边都是 map 时递归，都是列表时拼接，其余情况 src 覆盖 dst
// 写入 dst 的值都是 src 的副本，之后修改 dst 不会影响 src
func Merge(dst, src Tree) Tree {
	if dst == nil {
		dst = make(Tree)
	}
	for key, srcVal := range src {
		dstVal, exists := dst[key]
		if !exists {
			dst[key] = cloneValue(srcVal)
			continue
		}

		dstMap, dstIsMap := dstVal.(Tree)
		srcMap, srcIsMap := srcVal.(Tree)
		if dstIsMap && srcIsMap {
			dst[key] = Merge(dstMap, srcMap)
			continue
		}

		dstList, dstIsList := AsList(dstVal)
		srcList, srcIsList := AsList(srcVal)
		if dstIsList && srcIsList {
			merged := make([]interface{}, 0, len(dstList)+len(srcList))
			merged = append(merged, dstList...)
			for _, item := range srcList {
				merged = append(merged, cloneValue(item))
			}
			dst[key] = merged
			continue
		}

		dst[key] = cloneValue(srcVal)
	}
	return dst
}

// AsList 将 []interface{} 或 []string 统一为 []interface{}
func AsList(v interface{}) ([]interface{}, bool) {
	switch l := v.(type) {
	case []interface{}:
		return l, true
	case []string:
		out := make([]interface{}, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// Normalize 把 YAML 解出的 map[interface{}]interface{} 递归转换为 Tree
func Normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[interface{}]interface{}:
		out := make(Tree, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = Normalize(item)
		}
		return out
	case Tree:
		for k, item := range val {
			val[k] = Normalize(item)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = Normalize(item)
		}
		return val
	default:
		return v
	}
}

// Clone 深拷贝配置树
func Clone(t Tree) Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for k, v := range t {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case Tree:
		return Clone(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}

func splitPath(path string) []string {
	return strings.Split(path, ".")
}

// Lookup 按点分路径查找值，路径不存在时返回 false
func Lookup(t Tree, path string) (interface{}, bool) {
	v, err := Get(t, path)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Get 按点分路径取值，路径不存在时返回 UnknownPathError
func Get(t Tree, path string) (interface{}, error) {
	segments := splitPath(path)
	var cur interface{} = t
	for _, seg := range segments {
		m, ok := cur.(Tree)
		if !ok {
			return nil, &UnknownPathError{Path: path, Segment: seg}
		}
		next, exists := m[seg]
		if !exists {
			return nil, &UnknownPathError{Path: path, Segment: seg}
		}
		cur = next
	}
	return cur, nil
}

// Set 按点分路径写值，缺失的中间 map 会被创建
// 中间节点存在但不是 map 时返回 UnknownPathError
func Set(t Tree, path string, value interface{}) error {
	segments := splitPath(path)
	parent, err := ensure(t, path, segments[:len(segments)-1])
	if err != nil {
		return err
	}
	parent[segments[len(segments)-1]] = value
	return nil
}

// Section 返回路径处的子树，不存在或为 nil 时创建空 map
func Section(t Tree, path string) (Tree, error) {
	return ensure(t, path, splitPath(path))
}

func ensure(t Tree, path string, segments []string) (Tree, error) {
	cur := t
	for _, seg := range segments {
		next, exists := cur[seg]
		if !exists || next == nil {
			child := make(Tree)
			cur[seg] = child
			cur = child
			continue
		}
		child, ok := next.(Tree)
		if !ok {
			return nil, &UnknownPathError{Path: path, Segment: seg}
		}
		cur = child
	}
	return cur, nil
}

// Delete 删除路径处的键，路径不存在时不做任何事
func Delete(t Tree, path string) {
	segments := splitPath(path)
	var cur interface{} = t
	for _, seg := range segments[:len(segments)-1] {
		m, ok := cur.(Tree)
		if !ok {
			return
		}
		cur = m[seg]
	}
	if m, ok := cur.(Tree); ok {
		delete(m, segments[len(segments)-1])
	}
}

// String 取字符串值，不存在或为 nil 时返回空串
func String(t Tree, path string) string {
	v, ok := Lookup(t, path)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
