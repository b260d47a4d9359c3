package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Manage archived reports",
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived report ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, log, err := buildApp(nil)
		if err != nil {
			return err
		}
		defer log.Sync()

		ids, err := a.ListResults(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var resultsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print an archived report as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, log, err := buildApp(nil)
		if err != nil {
			return err
		}
		defer log.Sync()

		saved, err := a.LoadResult(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(saved)
	},
}

var resultsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an archived report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, log, err := buildApp(nil)
		if err != nil {
			return err
		}
		defer log.Sync()

		return a.DeleteResult(cmd.Context(), args[0])
	},
}

func init() {
	resultsCmd.AddCommand(resultsListCmd, resultsShowCmd, resultsRmCmd)
	rootCmd.AddCommand(resultsCmd)
}
