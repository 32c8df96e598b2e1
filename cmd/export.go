package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"placement-portal/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// exportOptions 选择导出范围：JobID 优先，其次 Company，否则导出全局名单。
type exportOptions struct {
	JobID   int
	Company string
	Query   string
	Out     string
}

var exportOpts exportOptions

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export shortlisted candidates as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		name, body, err := runExport(cmd.Context(), cfg, newAppBuilder(cmd.Context(), log), exportOpts)
		if err != nil {
			return err
		}

		target := exportOpts.Out
		if target == "" {
			target = name
		}
		if err := writeExport(cmd.OutOrStdout(), target, body); err != nil {
			return err
		}
		log.Info("shortlist exported", zap.String("target", target), zap.Int("bytes", len(body)))
		return nil
	},
}

func init() {
	exportCmd.Flags().IntVar(&exportOpts.JobID, "job", 0, "Export the shortlist of one job")
	exportCmd.Flags().StringVar(&exportOpts.Company, "company", "", "Export every shortlisted candidate of one company")
	exportCmd.Flags().StringVarP(&exportOpts.Query, "query", "q", "", "Filter the global shortlist before export")
	exportCmd.Flags().StringVarP(&exportOpts.Out, "out", "o", "", "Output file, - for stdout (default: suggested file name)")
}

// runExport 加载数据后生成 CSV，返回建议文件名与内容。
func runExport(ctx context.Context, cfg config.Config, build appBuilder, opts exportOptions) (string, string, error) {
	deps, cleanup, err := build(cfg)
	if err != nil {
		return "", "", err
	}
	defer cleanup()

	if deps.bootstrap != nil {
		if _, err := deps.bootstrap(ctx); err != nil {
			return "", "", fmt.Errorf("bootstrap portal: %w", err)
		}
	}
	switch {
	case opts.JobID > 0:
		return deps.exporter.ExportJobShortlist(opts.JobID)
	case opts.Company != "":
		return deps.exporter.ExportCompanyShortlist(opts.Company)
	default:
		return deps.exporter.ExportGlobalShortlist(opts.Query)
	}
}

func writeExport(stdout io.Writer, target, body string) error {
	if target == "-" {
		_, err := io.WriteString(stdout, body)
		return err
	}
	if err := os.WriteFile(target, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	fmt.Fprintf(stdout, "wrote %s\n", target)
	return nil
}
