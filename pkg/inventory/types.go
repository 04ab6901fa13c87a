package inventory

import (
	"encoding/json"

	"github.com/jimyag/splunk-inventory/pkg/derive"
	"github.com/jimyag/splunk-inventory/pkg/redact"
	"github.com/jimyag/splunk-inventory/pkg/tree"
)

// ForwarderHome universal forwarder 的安装目录，forwarder 不参与集群
const ForwarderHome = "/opt/splunkforwarder"

// Group 表示一个主机组
type Group struct {
	Hosts    []string  // 主机名列表
	Children []string  // 子组名列表
	Vars     tree.Tree // 组变量，只有 all 组有
}

// Inventory 表示整个动态 inventory
type Inventory struct {
	HostVars  map[string]tree.Tree // _meta.hostvars
	All       *Group
	Ungrouped *Group
	Groups    derive.HostGroups // 按角色发现的主机组
}

// NewInventory 创建一个新的 Inventory
func NewInventory() *Inventory {
	return &Inventory{
		HostVars: make(map[string]tree.Tree),
		All: &Group{
			Hosts:    []string{},
			Children: []string{"ungrouped"},
			Vars:     tree.Tree{},
		},
		Ungrouped: &Group{Hosts: []string{}},
		Groups:    derive.HostGroups{},
	}
}

// Vars 返回 all.vars
func (inv *Inventory) Vars() tree.Tree {
	return inv.All.Vars
}

// Host 返回主机变量，未知主机返回空 map
func (inv *Inventory) Host(name string) tree.Tree {
	if vars, ok := inv.HostVars[name]; ok {
		return vars
	}
	return tree.Tree{}
}

// ViewVars 返回用于输出的 all.vars 副本
// forwarder 角色去掉 idxc 和 shc，redacted 为 true 时遮盖敏感字段
func (inv *Inventory) ViewVars(redacted bool) tree.Tree {
	vars := tree.Clone(inv.All.Vars)
	if vars == nil {
		vars = tree.Tree{}
	}
	if tree.String(vars, "splunk.home") == ForwarderHome {
		tree.Delete(vars, "splunk.idxc")
		tree.Delete(vars, "splunk.shc")
	}
	if redacted {
		redact.Redact(vars)
	}
	return vars
}

// View 返回 Ansible 动态 inventory 格式的完整文档，redacted 为 true 时 hostvars 同样遮盖
func (inv *Inventory) View(redacted bool) tree.Tree {
	hostvars := tree.Tree{}
	for name, vars := range inv.HostVars {
		vars = tree.Clone(vars)
		if redacted {
			redact.Redact(vars)
		}
		hostvars[name] = vars
	}

	doc := tree.Tree{
		"_meta": tree.Tree{"hostvars": hostvars},
		"all": tree.Tree{
			"hosts":    stringList(inv.All.Hosts),
			"children": stringList(inv.All.Children),
			"vars":     inv.ViewVars(redacted),
		},
		"ungrouped": tree.Tree{"hosts": stringList(inv.Ungrouped.Hosts)},
	}
	for name, group := range inv.Groups {
		doc[name] = tree.Tree{"hosts": stringList(group.Hosts)}
	}
	return doc
}

// MarshalJSON 未遮盖的完整文档，供 Ansible 使用
func (inv *Inventory) MarshalJSON() ([]byte, error) {
	return json.Marshal(inv.View(false))
}

func stringList(in []string) []interface{} {
	out := make([]interface{}, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}
