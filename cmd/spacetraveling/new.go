package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eringen/spacetraveling/scaffold"
)

var newCmd = &cobra.Command{
	Use:         "new <name>",
	Short:       "Create a demo project with sample posts",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{"config": "skip"},
	Example: `  spacetraveling new myblog
  spacetraveling new github.com/user/myblog`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data := scaffold.NewData(args[0])
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Creating new spacetraveling project: %s\n\n", data.ProjectName)

		files, err := scaffold.Generate(data.ProjectName, data)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintf(out, "  created %s\n", f)
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, "Done! Next steps:")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  cd %s\n", data.ProjectName)
		fmt.Fprintln(out, "  spacetraveling serve --build --fallback")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Set content.source to prismic and fill in .env to read from Prismic.")
		return nil
	},
}
