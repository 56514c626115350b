// Package main provides the variant-explorer command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hortanse/variant-explorer/internal/ensembl"
	"github.com/hortanse/variant-explorer/internal/output"
	"github.com/hortanse/variant-explorer/internal/ratelimit"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const configName = ".variant-explorer"

var errNoCommand = errors.New("a command is required (gene, variant or config)")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

// options holds the flags shared by the query commands.
type options struct {
	cfgFile string
	output  string
	verbose bool
	fields  string
	duckdb  string
}

// app carries the per-invocation state of the CLI.
type app struct {
	stdout io.Writer
	stderr io.Writer
	opts   options
	logger *zap.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:   "variant-explorer",
		Short: "Retrieve gene and variant information from the Ensembl REST API",
		Long: `variant-explorer looks up genes by symbol and variants by chr:pos:ref:alt
descriptor against the Ensembl REST API and writes flat CSV or JSON records.`,
		Example: `  variant-explorer gene BRCA1 TP53 --include-transcripts
  variant-explorer variant 17:43057063:G:A --include-populations -f json
  variant-explorer gene BRCA1 --fields gene_symbol,location -o brca1.csv`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(a.opts.cfgFile); err != nil {
				return err
			}
			a.logger = newLogger(a.stderr, a.opts.verbose)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetOut(a.stderr)
			_ = cmd.Help()
			return errNoCommand
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("variant-explorer version {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.opts.cfgFile, "config", "", "Config file (default: ~/"+configName+".yaml)")
	pf.StringVarP(&a.opts.output, "output", "o", "", "Output file path for results (default: stdout)")
	pf.StringP("format", "f", output.FormatCSV, "Output format: csv or json")
	pf.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Enable verbose output")
	pf.StringVar(&a.opts.fields, "fields", "", "Comma-separated list of fields to include in output")
	pf.StringVar(&a.opts.duckdb, "duckdb", "", "Also append the results to this DuckDB database")
	_ = viper.BindPFlag("format", pf.Lookup("format"))

	cmd.AddCommand(newGeneCmd(a))
	cmd.AddCommand(newVariantCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}

// initConfig loads settings from the config file and VARIANT_EXPLORER_*
// environment variables. A missing config file is not an error; "config set"
// creates it.
func initConfig(cfgFile string) error {
	viper.SetDefault("species", ensembl.DefaultSpecies)
	viper.SetDefault("assembly", ensembl.DefaultAssembly)
	viper.SetDefault("format", output.FormatCSV)
	viper.SetDefault("rate_limit", ratelimit.DefaultInterval.Seconds())
	viper.SetDefault("base_url", ensembl.DefaultBaseURL)
	viper.SetDefault("timeout", ensembl.DefaultTimeout.String())

	viper.SetEnvPrefix("VARIANT_EXPLORER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// defaultConfigPath returns where "config set" writes when no file was loaded.
func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}

// newLogger builds a console logger on w, at debug level when verbose.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime)
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

// newClient creates an Ensembl client from the loaded settings.
func (a *app) newClient() (*ensembl.Client, error) {
	cfg := ensembl.Config{
		BaseURL:     viper.GetString("base_url"),
		MinInterval: time.Duration(viper.GetFloat64("rate_limit") * float64(time.Second)),
		Timeout:     viper.GetDuration("timeout"),
	}
	client, err := ensembl.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("rate_limit/base_url/timeout settings: %w", err)
	}
	client.SetLogger(a.logger)
	a.logger.Debug("ensembl client",
		zap.String("base_url", cfg.BaseURL),
		zap.Duration("min_interval", cfg.MinInterval),
		zap.Duration("timeout", cfg.Timeout))
	return client, nil
}
