package facts

import (
	"io/fs"
	"os"
	"runtime"
	"strings"
)

// 平台名，对应基础配置文件名中的平台部分
const (
	PlatformLinux   = "linux"
	PlatformWindows = "windows"
)

// dockerEnvFile 容器内才存在的标记文件，相对于根目录
const dockerEnvFile = ".dockerenv"

// Facts 运行 inventory 的本机信息
type Facts struct {
	Platform    string
	Hostname    string
	InContainer bool
}

// Options 采集参数，零值表示使用真实系统
type Options struct {
	GOOS     string
	Hostname func() (string, error)
	// RootFS 根文件系统，用于检测容器标记文件
	RootFS fs.FS
}

// Gather 采集本机信息
// 主机名获取失败时留空，此时不会加载 host 分组的配置片段
func Gather(opts Options) Facts {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.Hostname == nil {
		opts.Hostname = os.Hostname
	}
	if opts.RootFS == nil {
		opts.RootFS = os.DirFS("/")
	}

	facts := Facts{Platform: DetectPlatform(opts.GOOS)}
	if name, err := opts.Hostname(); err == nil {
		facts.Hostname = strings.TrimSpace(name)
	}
	facts.InContainer = InContainer(opts.RootFS)
	return facts
}

// DetectPlatform windows 和 cygwin 归为 windows，其余归为 linux
func DetectPlatform(goos string) string {
	goos = strings.ToLower(goos)
	if strings.Contains(goos, "windows") || strings.Contains(goos, "cygwin") {
		return PlatformWindows
	}
	return PlatformLinux
}

// InContainer 根目录存在 .dockerenv 时认为运行在容器中
func InContainer(root fs.FS) bool {
	info, err := fs.Stat(root, dockerEnvFile)
	return err == nil && !info.IsDir()
}
