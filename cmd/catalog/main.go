// Command catalog serves the movie and genre catalog over HTTP.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Error().Err(err).Msg("Catalog exited with error.")
		os.Exit(1)
	}
}

func newRootCmd(logger zerolog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "catalog",
		Short:         "Movie and genre catalog with a cache-aside read path",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(logger))
	return root
}
