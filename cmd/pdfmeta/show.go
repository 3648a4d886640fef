// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfmeta/internal/extract"
	"github.com/pdiddy/pdfmeta/internal/render"
	"github.com/pdiddy/pdfmeta/pkg/types"
)

var showCmd = &cobra.Command{
	Use:   "show <file.pdf>...",
	Short: "Print the metadata of one or more PDF files",
	Long: `Show reads each PDF file and prints its metadata table. Absent properties
are shown as "Not specified". Files are read concurrently; results are printed
in argument order. The command fails if any file could not be read.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringP("output", "o", string(types.OutputText), "output format: text, json, or yaml")
	showCmd.Flags().Int("workers", 0, "maximum files read at once (default: number of CPUs)")

	cobra.CheckErr(viper.BindPFlag("output", showCmd.Flags().Lookup("output")))
	cobra.CheckErr(viper.BindPFlag("workers", showCmd.Flags().Lookup("workers")))

	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	a := current

	printer, err := render.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), a.cfg.Display.Output, a.loc)
	if err != nil {
		return err
	}

	// Paths that cannot be opened are reported in place without reaching the
	// extractor.
	results := make([]extract.Result, len(args))
	var files []extract.File
	var slots []int
	for i, path := range args {
		f, err := extract.LocalFile(path)
		if err != nil {
			results[i] = extract.Result{
				File: extract.MemoryFile(path, nil),
				Err:  types.NewExtractionError(types.KindOther, "opening file", err),
			}
			continue
		}
		files = append(files, f)
		slots = append(slots, i)
	}

	a.logger.Debug("extracting metadata", "files", len(files), "workers", a.cfg.Workers)
	for j, r := range a.extractor.ExtractAll(cmd.Context(), files, a.cfg.Workers) {
		results[slots[j]] = r
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
		if err := printer.Print(r.File.Name(), r.Table, r.Err); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	if err := printer.Close(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(results))
	}
	return nil
}
