package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hortanse/variant-explorer/internal/annotate"
	"github.com/hortanse/variant-explorer/internal/duckdb"
	"github.com/hortanse/variant-explorer/internal/output"
)

// format returns the configured output format after validating it.
func (a *app) format() (string, error) {
	format := viper.GetString("format")
	if !slices.Contains(output.Formats, format) {
		return "", fmt.Errorf("invalid format %q (choose from %s)", format, strings.Join(output.Formats, ", "))
	}
	return format, nil
}

// runQuery processes inputs one at a time, exports and writes the records
// that succeeded. Failed inputs are logged and skipped.
func (a *app) runQuery(ctx context.Context, kind string, inputs []string, proc annotate.Processor, format string) error {
	runner := annotate.NewRunner()
	runner.SetLogger(a.logger)
	runner.SetVerbose(a.opts.verbose)

	results := runner.Run(ctx, kind, inputs, proc)
	records := runner.Collect(kind, results)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s query interrupted: %w", kind, err)
	}

	if a.opts.duckdb != "" {
		if err := a.export(results); err != nil {
			return err
		}
	}

	rows := annotate.FilterFields(annotate.Rows(records), a.opts.fields)
	return a.writeRows(rows, format)
}

// export appends the batch to the DuckDB database named by --duckdb.
func (a *app) export(results []annotate.WorkResult) error {
	store, err := duckdb.Open(a.opts.duckdb)
	if err != nil {
		return fmt.Errorf("open export database: %w", err)
	}
	defer store.Close()

	runID := duckdb.NewRunID()
	if _, err := store.WriteResults(runID, results); err != nil {
		return fmt.Errorf("export results: %w", err)
	}

	sum, err := store.RunSummary(runID)
	if err != nil {
		return fmt.Errorf("read back exported results: %w", err)
	}
	for _, input := range sum.Inputs {
		a.logger.Debug("exported input", zap.String("run_id", sum.RunID), zap.String("input", input))
	}
	a.logger.Info("exported results",
		zap.String("path", store.Path()),
		zap.String("run_id", sum.RunID),
		zap.Int("genes", sum.Genes),
		zap.Int("variants", sum.Variants))
	return nil
}

// writeRows writes rows to the output file or stdout. An empty result set
// only prints a notice on stderr.
func (a *app) writeRows(rows []annotate.Row, format string) error {
	if len(rows) == 0 {
		fmt.Fprintln(a.stderr, notice(a.stderr, "1").Render("No results found."))
		return nil
	}

	if a.opts.output == "" {
		return writeFormatted(a.stdout, rows, format)
	}

	f, err := os.Create(a.opts.output)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := writeFormatted(f, rows, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}

	fmt.Fprintln(a.stdout, notice(a.stdout, "2").Render("Results saved to "+a.opts.output))
	return nil
}

func writeFormatted(w io.Writer, rows []annotate.Row, format string) error {
	ow, err := output.New(format, w)
	if err != nil {
		return err
	}
	if err := ow.Write(rows); err != nil {
		return fmt.Errorf("write %s output: %w", format, err)
	}
	return nil
}

// notice returns a style in the given ANSI color, rendered for w so that
// redirected output carries no escape codes.
func notice(w io.Writer, color string) lipgloss.Style {
	return lipgloss.NewRenderer(w).NewStyle().Foreground(lipgloss.Color(color))
}
