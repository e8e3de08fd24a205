package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fetch every post and write the static site",
	Long: `The build command renders the listing, archive pages, every post page,
404.html, sitemap.xml, feed.xml and robots.txt into the output directory.
Files whose content did not change since the last build are left alone;
files the last build wrote but this one did not are removed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		stats, err := app.Build(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d posts, %d pages: %d written, %d unchanged, %d removed in %s\n",
			stats.Posts, stats.Pages, stats.Written, stats.Unchanged, stats.Removed, stats.Duration.Round(time.Millisecond))
		return nil
	},
}

func init() {
	buildCmd.Flags().Bool("clean", false, "wipe the output directory and manifest first")
	buildCmd.Flags().Int("concurrency", 0, "post pages rendered in parallel")
}
