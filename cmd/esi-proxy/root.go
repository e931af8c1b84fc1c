package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "esi-proxy",
		Short: "Credential translating proxy for the EVE Swagger Interface",
		Long: `esi-proxy fronts ESI and swaps long-lived proxy keys for the
OAuth access tokens they stand for, refreshing tokens as they near
expiry. It also serves the account and key management API.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := newServeCmd()
	root.AddCommand(serve, newRewriteCmd())

	// Running with no subcommand serves.
	root.RunE = serve.RunE

	return root
}
