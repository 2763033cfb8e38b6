package main

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/actionc/actionc/internal/cache"
	"github.com/actionc/actionc/internal/config"
	"github.com/actionc/actionc/internal/driver"
)

var (
	listConfigPath string
	listNoCache    bool
)

func init() {
	listCmd.Flags().StringVar(&listConfigPath, "config", "", "project file (default "+config.DefaultFileName+" if present)")
	listCmd.Flags().BoolVar(&listNoCache, "no-cache", false, "disable the transform cache")
}

var listCmd = &cobra.Command{
	Use:   "list [flags] [files...]",
	Short: "List the actions in a project without writing output",
	RunE:  runList,
}

type actionRow struct {
	file   string
	export string
	id     string
}

func runList(cmd *cobra.Command, args []string) error {
	stderrColor, err := applyColorMode(cmd)
	if err != nil {
		return err
	}
	level, err := logLevel(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadProject(listConfigPath)
	if err != nil {
		return err
	}

	var transformCache *cache.Cache
	if cfg.Cache.Enabled && !listNoCache {
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
	})
	if err != nil {
		return err
	}

	printDiagnostics(result, stderrColor, level)
	if result.Errors > 0 {
		return fmt.Errorf("list failed with %s", plural(result.Errors, "error"))
	}

	var rows []actionRow
	for _, file := range result.Files {
		for _, action := range file.Actions {
			rows = append(rows, actionRow{file: file.Path, export: action.Name, id: action.ID})
		}
	}
	renderActionRows(cmd.OutOrStdout(), rows, isTerminal(os.Stdout))
	return nil
}

// renderActionRows prints a bordered table on terminals and tab-separated
// lines when piped, so the output stays machine-readable in scripts.
func renderActionRows(out io.Writer, rows []actionRow, table bool) {
	if !table {
		for _, row := range rows {
			fmt.Fprintf(out, "%s\t%s\t%s\n", row.file, row.export, row.id)
		}
		return
	}

	t := tablewriter.NewWriter(out)
	t.SetHeader([]string{"File", "Export", "ID"})
	t.SetBorder(false)
	t.SetCenterSeparator("")
	t.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
	for _, row := range rows {
		t.Append([]string{row.file, row.export, row.id})
	}
	t.Render()
}
