package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jimyag/splunk-inventory/pkg/environ"
	"github.com/jimyag/splunk-inventory/pkg/errors"
	"github.com/jimyag/splunk-inventory/pkg/facts"
	"github.com/jimyag/splunk-inventory/pkg/inventory"
	"github.com/jimyag/splunk-inventory/pkg/logger"
	"github.com/jimyag/splunk-inventory/pkg/metrics"
	"github.com/jimyag/splunk-inventory/pkg/runner"
)

// cliArgs 命令行参数
type cliArgs struct {
	host          string
	writeToFile   bool
	writeToStdout bool
	envFiles      []string
	artifactDir   string
	baseDir       string
	metricsFile   string
	rest          []string
}

func main() {
	// 定义命令行参数
	_ = flag.Bool("list", true, "List all hosts (default behavior)")
	host := flag.String("host", "", "Only get information for a specific host")
	writeToFile := flag.Bool("write-to-file", false, "Write the redacted inventory to the artifact dir for debugging")
	writeToStdout := flag.Bool("write-to-stdout", false, "Print a default.yml built from the current vars on stdout")
	envFile := flag.String("env-file", "", "Comma separated env files, process environment wins")
	artifactDir := flag.String("artifact-dir", runner.DefaultArtifactDir, "Directory for --write-to-file output")
	baseDir := flag.String("base-defaults-dir", "", "Directory replacing the bundled base defaults")
	metricsFile := flag.String("metrics-file", "", "Write fetch and stage metrics in textfile format")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	logger.Init(logger.DefaultConfig())
	if *verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	args := cliArgs{
		host:          *host,
		writeToFile:   *writeToFile,
		writeToStdout: *writeToStdout,
		envFiles:      splitEnvFiles(*envFile),
		artifactDir:   *artifactDir,
		baseDir:       *baseDir,
		metricsFile:   *metricsFile,
		rest:          flag.Args(),
	}
	if err := args.validate(); err != nil {
		logger.Errorf("%v", err)
		flag.Usage()
		os.Exit(1)
	}

	if err := run(args); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func splitEnvFiles(raw string) []string {
	var files []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	return files
}

// validate 在开始解析前检查参数组合和本地路径
func (a cliArgs) validate() error {
	if len(a.rest) > 0 {
		return errors.NewInvalidArgsError("", "unexpected arguments: %s", strings.Join(a.rest, " "))
	}
	if a.writeToFile && strings.TrimSpace(a.artifactDir) == "" {
		return errors.NewInvalidArgsError("artifact-dir", "--artifact-dir must not be empty with --write-to-file")
	}
	for _, f := range a.envFiles {
		info, err := os.Stat(f)
		if err != nil {
			return errors.NewInvalidArgsError("env-file", "env file %s: %v", f, err)
		}
		if info.IsDir() {
			return errors.NewInvalidArgsError("env-file", "env file %s is a directory", f)
		}
	}
	if a.baseDir != "" {
		info, err := os.Stat(a.baseDir)
		if err != nil {
			return errors.NewInvalidArgsError("base-defaults-dir", "base defaults dir %s: %v", a.baseDir, err)
		}
		if !info.IsDir() {
			return errors.NewInvalidArgsError("base-defaults-dir", "base defaults dir %s is not a directory", a.baseDir)
		}
	}
	return nil
}

func run(args cliArgs) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := environ.Load(args.envFiles...)
	if err != nil {
		return err
	}

	var baseFS fs.FS
	if args.baseDir != "" {
		baseFS = os.DirFS(args.baseDir)
	}

	rec := metrics.NewRecorder()
	mgr := inventory.NewManager(inventory.Options{
		Env:      env,
		Facts:    facts.Gather(facts.Options{}),
		BaseFS:   baseFS,
		Recorder: rec,
	})

	r := runner.NewRunner(mgr, runner.Options{
		Mode:        runner.SelectMode(args.host, args.writeToFile, args.writeToStdout),
		Host:        args.host,
		ArtifactDir: args.artifactDir,
	})
	runErr := r.Run(ctx)

	// 解析失败时也写出指标，便于观察失败的获取
	if args.metricsFile != "" {
		if err := rec.WriteTextfile(args.metricsFile); err != nil {
			if runErr == nil {
				return fmt.Errorf("write metrics: %w", err)
			}
			logger.Warnf("write metrics: %v", err)
		}
	}
	return runErr
}
