// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdfmeta CLI.
// show prints the metadata of PDF files; serve runs the upload server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfmeta/internal/extract"
	"github.com/pdiddy/pdfmeta/internal/locale"
	"github.com/pdiddy/pdfmeta/internal/pdfdate"
	"github.com/pdiddy/pdfmeta/internal/pdfdoc"
	"github.com/pdiddy/pdfmeta/internal/secrets"
	"github.com/pdiddy/pdfmeta/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// app holds what the root command resolves once before any subcommand runs.
// Nothing mutates it afterwards.
type app struct {
	cfg       types.Config
	logger    *slog.Logger
	loc       *locale.Localizer
	extractor *extract.Extractor
}

var current *app

// rootCmd is the base command for the pdfmeta CLI.
var rootCmd = &cobra.Command{
	Use:   "pdfmeta",
	Short: "Show the document properties of PDF files",
	Long: `pdfmeta reads PDF files and prints their document properties: file name,
size, page count, the info dictionary (title, author, creator, producer,
creation and modification dates), PDF version, encryption status, and any
string-valued XMP metadata.

Use show for files on disk or serve to run a small upload page.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		current = a
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./pdfmeta.yaml or ~/.config/pdfmeta/pdfmeta.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, or error")
	pf.String("locale", types.DefaultLocale, "language for labels and dates (en, ru)")
	pf.String("timezone", "", "IANA zone for dates that carry an offset (default: local)")
	pf.String("password", "", "password for encrypted PDFs (default: .secrets/pdf-password)")

	cobra.CheckErr(viper.BindPFlag("log.level", pf.Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag("locale", pf.Lookup("locale")))
	cobra.CheckErr(viper.BindPFlag("timezone", pf.Lookup("timezone")))
	cobra.CheckErr(viper.BindPFlag("password", pf.Lookup("password")))

	viper.SetDefault("log.format", "text")
	viper.SetDefault("workers", 0)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdfmeta")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdfmeta"))
		}
	}

	viper.SetEnvPrefix("PDFMETA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newApp resolves configuration and secrets and wires the extractor.
func newApp() (*app, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	cfg = cfg.WithDefaults()

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	s, err := secrets.Load(secrets.DefaultDir)
	if err != nil {
		return nil, err
	}
	cfg.Parser.Password = secrets.Password(cfg.Parser.Password, s)

	tz := time.Local
	if cfg.Display.Timezone != "" {
		tz, err = time.LoadLocation(cfg.Display.Timezone)
		if err != nil {
			return nil, fmt.Errorf("timezone %q: %w", cfg.Display.Timezone, err)
		}
	}

	loc := locale.New(cfg.Display.Locale)
	dates := pdfdate.Formatter{
		Layout:      loc.DateLayout(),
		Location:    tz,
		Placeholder: loc.Placeholder(),
	}
	ext := extract.New(pdfdoc.New(cfg.Parser, logger),
		extract.WithLocalizer(loc),
		extract.WithDateFormatter(dates),
		extract.WithLogger(logger),
	)

	logger.Debug("configuration resolved",
		"locale", loc.Tag().String(),
		"timezone", tz.String(),
		"output", cfg.Display.Output,
		"password_set", cfg.Parser.Password != "",
	)
	return &app{cfg: cfg, logger: logger, loc: loc, extractor: ext}, nil
}

// newLogger builds the process logger on stderr. Text output drops the
// timestamp so CLI diagnostics stay short.
func newLogger(cfg types.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					return slog.Attr{}
				}
				return a
			},
		})), nil
	default:
		return nil, fmt.Errorf("log format %q (want text or json)", cfg.Format)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
