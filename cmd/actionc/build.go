package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/actionc/actionc/internal/cache"
	"github.com/actionc/actionc/internal/config"
	"github.com/actionc/actionc/internal/driver"
	"github.com/actionc/actionc/internal/logger"
)

var (
	buildConfigPath   string
	buildOutDir       string
	buildServer       bool
	buildJobs         int64
	buildNoCache      bool
	buildManifestPath string
)

func init() {
	buildCmd.Flags().StringVar(&buildConfigPath, "config", "", "project file (default "+config.DefaultFileName+" if present)")
	buildCmd.Flags().StringVar(&buildOutDir, "out", "", "output directory (overrides out_dir)")
	buildCmd.Flags().BoolVar(&buildServer, "server", true, "treat sources as a trusted server-only unit")
	buildCmd.Flags().Int64Var(&buildJobs, "jobs", 0, "number of files transformed in parallel")
	buildCmd.Flags().BoolVar(&buildNoCache, "no-cache", false, "disable the transform cache")
	buildCmd.Flags().StringVar(&buildManifestPath, "manifest", "", "write an action manifest to this path")
}

var buildCmd = &cobra.Command{
	Use:   "build [flags] [files...]",
	Short: "Transform action modules and write them to the output directory",
	Long: "Build transforms every matching module and writes the result under the\n" +
		"output directory. Without file arguments the project root is scanned\n" +
		"using the include patterns from the project file.",
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	stderrColor, err := applyColorMode(cmd)
	if err != nil {
		return err
	}
	level, err := logLevel(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadProject(buildConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("out") {
		cfg.OutDir = buildOutDir
	}
	if cmd.Flags().Changed("server") {
		cfg.Server = buildServer
	}
	if cmd.Flags().Changed("jobs") {
		if buildJobs < 1 {
			return fmt.Errorf("--jobs must be at least 1")
		}
		cfg.Jobs = buildJobs
	}

	var transformCache *cache.Cache
	if cfg.Cache.Enabled && !buildNoCache {
		dir, err := cfg.CacheDir()
		if err != nil {
			return err
		}
		if transformCache, err = cache.Open(dir); err != nil {
			return err
		}
	}

	result, err := driver.Build(cmd.Context(), driver.Options{
		Config: cfg,
		Files:  args,
		Cache:  transformCache,
		Write:  true,
	})
	if err != nil {
		return err
	}

	printDiagnostics(result, stderrColor, level)

	if buildManifestPath != "" && result.Errors == 0 {
		if err := result.Manifest.WriteFile(buildManifestPath); err != nil {
			return err
		}
	}

	if result.Errors > 0 {
		return fmt.Errorf("build failed with %s", plural(result.Errors, "error"))
	}
	if level <= logger.LevelInfo {
		printSummary(cmd, result)
	}
	return nil
}

// printDiagnostics replays the deferred per-file logs through one stderr
// log so rendering, limits, and colors are applied consistently.
func printDiagnostics(result *driver.BuildResult, stderrColor logger.StderrColor, level logger.LogLevel) {
	log := logger.NewStderrLog(logger.StderrOptions{
		IncludeSource: true,
		Color:         stderrColor,
		LogLevel:      level,
	})
	for _, file := range result.Files {
		for _, msg := range file.Msgs {
			log.AddMsg(msg)
		}
	}
	log.Done()
}

func printSummary(cmd *cobra.Command, result *driver.BuildResult) {
	actionCount := 0
	cachedCount := 0
	for _, file := range result.Files {
		actionCount += len(file.Actions)
		if file.Cached {
			cachedCount++
		}
	}
	summary := fmt.Sprintf("compiled %s, found %s",
		plural(len(result.Files), "file"), plural(actionCount, "action"))
	if cachedCount > 0 {
		summary += fmt.Sprintf(" (%d cached)", cachedCount)
	}
	color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), summary)
}

func plural(count int, noun string) string {
	if count == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", count, noun)
}
