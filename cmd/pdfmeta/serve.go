// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfmeta/internal/server"
	"github.com/pdiddy/pdfmeta/pkg/types"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the PDF upload page and JSON API",
	Long: `Serve starts an HTTP server with an upload page at / and a JSON endpoint
at POST /api/metadata. Both accept a multipart upload with the PDF in the
"file" field. Uploads are processed in memory and never stored.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", types.DefaultAddr, "listen address")
	serveCmd.Flags().Int64("max-upload", types.DefaultMaxUploadBytes, "maximum request body size in bytes")
	serveCmd.Flags().Duration("read-timeout", types.DefaultReadTimeout, "maximum time to read a request")

	cobra.CheckErr(viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr")))
	cobra.CheckErr(viper.BindPFlag("serve.max_upload_bytes", serveCmd.Flags().Lookup("max-upload")))
	cobra.CheckErr(viper.BindPFlag("serve.read_timeout", serveCmd.Flags().Lookup("read-timeout")))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a := current
	cfg := a.cfg.Serve

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(a.extractor, a.loc, cfg, a.logger).Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("pdfmeta listening", "addr", cfg.Addr, "max_upload_bytes", cfg.MaxUploadBytes)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving %s: %w", cfg.Addr, err)
	case <-cmd.Context().Done():
	}

	a.logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
