package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the spacetraveling version",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"config": "skip"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "spacetraveling %s\n", version)
	},
}
