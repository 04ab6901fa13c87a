package derive

import (
	"github.com/jimyag/splunk-inventory/pkg/environ"
	"github.com/jimyag/splunk-inventory/pkg/tree"
)

var idxcFields = []environ.Field{
	{Path: "label", EnvVar: "SPLUNK_IDXC_LABEL", Kind: environ.String},
	{Path: "secret", EnvVar: "SPLUNK_IDXC_SECRET", Kind: environ.String},
	{Path: "pass4SymmKey", EnvVar: "SPLUNK_IDXC_PASS4SYMMKEY", Kind: environ.String},
	{Path: "discoveryPass4SymmKey", EnvVar: "SPLUNK_IDXC_DISCOVERYPASS4SYMMKEY", Kind: environ.String},
	{Path: "replication_factor", EnvVar: "SPLUNK_IDXC_REPLICATION_FACTOR", Kind: environ.Int, Default: 1},
	{Path: "search_factor", EnvVar: "SPLUNK_IDXC_SEARCH_FACTOR", Kind: environ.Int, Default: 1},
}

var shcFields = []environ.Field{
	{Path: "label", EnvVar: "SPLUNK_SHC_LABEL", Kind: environ.String},
	{Path: "secret", EnvVar: "SPLUNK_SHC_SECRET", Kind: environ.String},
	{Path: "pass4SymmKey", EnvVar: "SPLUNK_SHC_PASS4SYMMKEY", Kind: environ.String},
	{Path: "replication_factor", EnvVar: "SPLUNK_SHC_REPLICATION_FACTOR", Kind: environ.Int, Default: 1},
}

// IndexerClustering 解析 splunk.idxc
// replication_factor 不超过 splunk_indexer 主机数，search_factor 不超过 replication_factor
func IndexerClustering(t tree.Tree, c *Context) error {
	idxc, err := resolveSection(t, c, "splunk.idxc", idxcFields)
	if err != nil {
		return err
	}
	aliasSecret(idxc)
	if isBlank(idxc["discoveryPass4SymmKey"]) {
		idxc["discoveryPass4SymmKey"] = idxc["pass4SymmKey"]
	}

	rf := ClampFactor(idxc["replication_factor"].(int), c.groups(), GroupIndexer)
	idxc["replication_factor"] = rf
	idxc["search_factor"] = minInt(idxc["search_factor"].(int), rf)
	return nil
}

// SearchHeadClustering 解析 splunk.shc，replication_factor 不超过 splunk_search_head 主机数
func SearchHeadClustering(t tree.Tree, c *Context) error {
	shc, err := resolveSection(t, c, "splunk.shc", shcFields)
	if err != nil {
		return err
	}
	aliasSecret(shc)
	shc["replication_factor"] = ClampFactor(shc["replication_factor"].(int), c.groups(), GroupSearchHead)
	return nil
}

// aliasSecret secret 是 pass4SymmKey 的旧名字，只设置了一个时互相补齐
func aliasSecret(section tree.Tree) {
	secret, key := section["secret"], section["pass4SymmKey"]
	switch {
	case isBlank(key) && !isBlank(secret):
		section["pass4SymmKey"] = secret
	case isBlank(secret) && !isBlank(key):
		section["secret"] = key
	}
}

// ClampFactor 把声明的因子限制在分组主机数以内，分组不存在时不限制
func ClampFactor(declared int, groups HostGroups, group string) int {
	count, ok := groups.Count(group)
	if !ok {
		return declared
	}
	return minInt(declared, count)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

var multisiteFields = []environ.Field{
	{Path: "site", EnvVar: "SPLUNK_SITE", Kind: environ.String},
	{Path: "all_sites", EnvVar: "SPLUNK_ALL_SITES", Kind: environ.String},
	{Path: "multisite_master", EnvVar: "SPLUNK_MULTISITE_MASTER", Kind: environ.String},
	{Path: "multisite_master_port", EnvVar: "SPLUNK_MULTISITE_MASTER_PORT", Kind: environ.Int, Default: 8089},
	{Path: "multisite_replication_factor_origin", EnvVar: "SPLUNK_MULTISITE_REPLICATION_FACTOR_ORIGIN", Kind: environ.Int, Default: 1},
	{Path: "multisite_replication_factor_total", EnvVar: "SPLUNK_MULTISITE_REPLICATION_FACTOR_TOTAL", Kind: environ.Int, Default: 1},
	{Path: "multisite_search_factor_origin", EnvVar: "SPLUNK_MULTISITE_SEARCH_FACTOR_ORIGIN", Kind: environ.Int, Default: 1},
	{Path: "multisite_search_factor_total", EnvVar: "SPLUNK_MULTISITE_SEARCH_FACTOR_TOTAL", Kind: environ.Int, Default: 1},
}

// Multisite 仅在 SPLUNK_SITE 或已有 splunk.site 时生效
// 总复制/搜索因子不低于已计算出的 idxc 因子，必须在 IndexerClustering 之后执行
func Multisite(t tree.Tree, c *Context) error {
	s, err := splunk(t)
	if err != nil {
		return err
	}
	if !environ.Present(c.env(), "SPLUNK_SITE") && isBlank(s["site"]) {
		return nil
	}

	if err := environ.ResolveFields(s, c.env(), multisiteFields); err != nil {
		return err
	}

	idxcRF, err := optionalInt(t, "splunk.idxc.replication_factor")
	if err != nil {
		return err
	}
	idxcSF, err := optionalInt(t, "splunk.idxc.search_factor")
	if err != nil {
		return err
	}
	s["multisite_replication_factor_total"] = maxInt(s["multisite_replication_factor_total"].(int), idxcRF)
	s["multisite_search_factor_total"] = maxInt(s["multisite_search_factor_total"].(int), idxcSF)
	return nil
}

func optionalInt(t tree.Tree, path string) (int, error) {
	v, ok := tree.Lookup(t, path)
	if !ok || v == nil {
		return 0, nil
	}
	return environ.ToInt(path, v)
}
