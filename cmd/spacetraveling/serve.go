package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveBuild bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Preview the output directory",
	Long: `The serve command serves the built site. With --fallback, post pages
missing from the output are rendered in the background on first request
while the visitor sees a loading page.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := newApp()
		if err != nil {
			return err
		}
		if serveBuild {
			if _, err := app.Build(ctx); err != nil {
				return err
			}
		}
		return app.Serve(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :3000)")
	serveCmd.Flags().Bool("fallback", false, "render missing post pages on demand")
	serveCmd.Flags().BoolVar(&serveBuild, "build", false, "build the site before serving")
}
