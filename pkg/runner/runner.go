package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/jimyag/splunk-inventory/pkg/inventory"
	"github.com/jimyag/splunk-inventory/pkg/logger"
	"github.com/jimyag/splunk-inventory/pkg/tree"
)

// Mode 输出方式
type Mode int

const (
	// ModeList 输出完整 inventory JSON，默认方式
	ModeList Mode = iota
	// ModeHost 输出单个主机的 hostvars
	ModeHost
	// ModeWriteToFile 把遮盖后的 inventory 写到 artifact 目录
	ModeWriteToFile
	// ModeWriteToStdout 以 YAML 输出遮盖后的 all.vars，可作为 default.yml 使用
	ModeWriteToStdout
)

func (m Mode) String() string {
	switch m {
	case ModeList:
		return "list"
	case ModeHost:
		return "host"
	case ModeWriteToFile:
		return "write-to-file"
	case ModeWriteToStdout:
		return "write-to-stdout"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// SelectMode 按命令行参数选择输出方式
// 优先级 write-to-file > write-to-stdout > host > list
func SelectMode(host string, writeToFile, writeToStdout bool) Mode {
	switch {
	case writeToFile:
		return ModeWriteToFile
	case writeToStdout:
		return ModeWriteToStdout
	case host != "":
		return ModeHost
	}
	return ModeList
}

const (
	// DefaultArtifactDir 默认 artifact 目录
	DefaultArtifactDir = "/opt/container_artifact"
	// ArtifactFile 写出的 inventory 文件名
	ArtifactFile = "ansible_inventory.json"
)

// yamlOmitKeys 只在 inventory 内部使用的变量，YAML 输出时去掉
var yamlOmitKeys = []string{
	"docker_version",
	"ansible_ssh_user",
	"delay_num",
	"apps_location",
	"docker_monitoring",
	"build_location",
	"build_remote_src",
	"deployer_included",
	"upgrade",
	"role",
	"search_head_cluster",
	"indexer_cluster",
	"license_master_included",
	"license_uri",
}

// yamlOmitScopes 需要去掉内部变量的层级
var yamlOmitScopes = []string{"", "splunk", "splunk.app_paths", "splunk.shc", "splunk.idxc"}

// PrepareForYAML 原地去掉内部变量并返回 vars
func PrepareForYAML(vars tree.Tree) tree.Tree {
	for _, scope := range yamlOmitScopes {
		section := vars
		if scope != "" {
			v, ok := tree.Lookup(vars, scope)
			if !ok {
				continue
			}
			section, ok = v.(tree.Tree)
			if !ok {
				continue
			}
		}
		for _, key := range yamlOmitKeys {
			delete(section, key)
		}
	}
	return vars
}

// Options Runner 参数
type Options struct {
	Mode        Mode
	Host        string
	ArtifactDir string
	// Out 文档输出位置，默认 stdout
	Out io.Writer
}

// Runner 解析 inventory 并按指定方式输出
type Runner struct {
	manager *inventory.Manager
	opts    Options
}

// NewRunner 创建一个新的 Runner
func NewRunner(mgr *inventory.Manager, opts Options) *Runner {
	if opts.ArtifactDir == "" {
		opts.ArtifactDir = DefaultArtifactDir
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Runner{manager: mgr, opts: opts}
}

// Run 解析 inventory 并输出
func (r *Runner) Run(ctx context.Context) error {
	inv, err := r.manager.Build(ctx)
	if err != nil {
		return err
	}
	return r.Render(inv)
}

// Render 按输出方式写出已解析的 inventory
func (r *Runner) Render(inv *inventory.Inventory) error {
	logger.Debugf("rendering inventory in %s mode", r.opts.Mode)

	switch r.opts.Mode {
	case ModeWriteToFile:
		return r.writeFile(inv)
	case ModeWriteToStdout:
		return r.writeYAML(inv)
	case ModeHost:
		return writeJSON(r.opts.Out, inv.Host(r.opts.Host), "")
	default:
		return writeJSON(r.opts.Out, inv.View(false), "")
	}
}

func (r *Runner) writeFile(inv *inventory.Inventory) error {
	if err := os.MkdirAll(r.opts.ArtifactDir, 0o755); err != nil {
		return pkgerrors.Wrapf(err, "create artifact dir %s", r.opts.ArtifactDir)
	}
	path := filepath.Join(r.opts.ArtifactDir, ArtifactFile)
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	if err := writeJSON(f, inv.View(true), "    "); err != nil {
		return pkgerrors.Wrapf(err, "write %s", path)
	}
	logger.Infof("inventory written to %s", path)
	return nil
}

func (r *Runner) writeYAML(inv *inventory.Inventory) error {
	vars := PrepareForYAML(inv.ViewVars(true))

	if _, err := io.WriteString(r.opts.Out, "---\n"); err != nil {
		return err
	}
	enc := yaml.NewEncoder(r.opts.Out)
	enc.SetIndent(2)
	if err := enc.Encode(vars); err != nil {
		return pkgerrors.Wrap(err, "encode vars as yaml")
	}
	return enc.Close()
}

// writeJSON map 的键由 encoding/json 排序输出
func writeJSON(w io.Writer, v interface{}, indent string) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(v)
}
