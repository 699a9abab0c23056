package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func parseCmd(configPath *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <transmission...>",
		Short: "Parse one transmission and print its semantic frame",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initApp(*configPath)
			if err != nil {
				return err
			}
			parser, err := a.buildParser()
			if err != nil {
				return err
			}

			res, err := parser.Parse(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			if asJSON {
				out, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			frameJSON, err := json.MarshalIndent(res.Frame, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.LogicalForm)
			fmt.Fprintln(cmd.OutOrStdout(), string(frameJSON))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full parse result as JSON")
	return cmd
}
