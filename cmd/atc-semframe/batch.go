package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yegors/atc-semframe/internal/semparse"
	"github.com/yegors/atc-semframe/internal/storage/sqlite"
	"github.com/yegors/atc-semframe/pkg/logger"
)

func batchCmd(configPath *string) *cobra.Command {
	var (
		inputPath string
		frames    bool
		store     bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Parse transmissions line by line and emit a TSV table",
		Long: `Reads one transmission per line from the input file (or stdin) and
writes a tab-separated table, one row per transmission.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initApp(*configPath)
			if err != nil {
				return err
			}
			parser, err := a.buildParser()
			if err != nil {
				return err
			}

			var ts *sqlite.TransmissionStorage
			if store {
				db, err := sqlite.Open(a.cfg.Storage.DatabasePath)
				if err != nil {
					return err
				}
				defer db.Close()
				ts, err = sqlite.NewTransmissionStorage(db, a.log)
				if err != nil {
					return err
				}
			}

			in := cmd.InOrStdin()
			if inputPath != "" && inputPath != "-" {
				f, err := os.Open(inputPath)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			return runBatch(cmd.Context(), a, parser, ts, in, cmd.OutOrStdout(), frames)
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "input file, one transmission per line (default stdin)")
	cmd.Flags().BoolVar(&frames, "frames", false, "emit frame JSON instead of logical forms")
	cmd.Flags().BoolVar(&store, "store", false, "persist each parsed transmission to the configured database")
	return cmd
}

func runBatch(ctx context.Context, a *app, parser *semparse.Parser, ts *sqlite.TransmissionStorage, in io.Reader, out io.Writer, frames bool) error {
	w := bufio.NewWriter(out)
	defer w.Flush()

	fmt.Fprintln(w, "#\tCommunication\tSemantics")

	scanner := bufio.NewScanner(in)
	row := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		row++

		res, err := parser.Parse(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.log.WithError(err).Warn("Skipping transmission", logger.Int("row", row))
			fmt.Fprintf(w, "%d\t%s\t\n", row, line)
			continue
		}

		semantics := res.LogicalForm
		frameJSON, err := json.Marshal(res.Frame)
		if err != nil {
			return err
		}
		if frames {
			semantics = string(frameJSON)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", row, line, semantics)

		if ts != nil {
			if _, err := ts.Store(&sqlite.TransmissionRecord{
				Content:     res.Input,
				Normalized:  res.Normalized,
				LogicalForm: res.LogicalForm,
				FrameJSON:   string(frameJSON),
				Callsign:    res.Callsign(),
				Segments:    res.Segments,
				ParseMillis: res.Duration.Milliseconds(),
			}); err != nil {
				a.log.WithError(err).Warn("Failed to store transmission", logger.Int("row", row))
			}
		}
	}
	return scanner.Err()
}
