package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

// newRootCmd 构建命令行入口：读取配置与线路数据，逐条生成线路图。
func newRootCmd() *cobra.Command {
	var opts runOptions

	root := &cobra.Command{
		Use:   "linemap",
		Short: "linemap draws linear transit line diagrams",
		Long: `linemap reads one JSON document per transit line from a data folder and
exports a schematic straight-line diagram (SVG or PDF) for each of them.`,
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := log.InfoLevel
			if opts.verbose {
				level = log.DebugLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), level)

			s, err := generate(cmd.Context(), opts, logger)
			if err != nil {
				logFailure(logger, err)
				return err
			}
			printSummary(cmd.OutOrStdout(), s)
			return nil
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("linemap %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.SilenceErrors = true

	f := root.Flags()
	f.StringVarP(&opts.dataRoot, "data", "d", "./data", "folder containing the line JSON files")
	f.StringVarP(&opts.configPath, "config", "c", "", "configuration file (.json, .yaml or .toml); defaults to configuration.json next to the executable, in the working directory or in the data folder")
	f.StringVar(&opts.format, "format", "", "export format override: svg or pdf")
	f.StringVar(&opts.debugDir, "debug-dir", "", "write per-line layout JSON into this folder")
	f.BoolVar(&opts.dryRun, "dry-run", false, "lay out every line without writing diagrams")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	return root
}
