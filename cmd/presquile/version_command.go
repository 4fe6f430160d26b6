package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newfla/presquile"
)

func newVersionCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			info := presquile.GetVersionInfo()
			if jsonOut {
				return newPrinter(cmd).encodeJSON(info)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "presquile %s (commit %s, built %s, %s)\n",
				info.Version, info.GitCommit, info.BuildTime, info.GoVersion)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print version information as JSON")
	return cmd
}
