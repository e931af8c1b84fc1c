package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alexjbarnes/esi-proxy/internal/proxy"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
)

type rewriteFlags struct {
	host     string
	port     int
	appName  string
	keyName  string
	hashName string
	diff     bool
}

func newRewriteCmd() *cobra.Command {
	var f rewriteFlags

	cmd := &cobra.Command{
		Use:   "rewrite [file]",
		Short: "Rewrite a swagger document the way the proxy serves it",
		Long: `Reads an ESI swagger.json from file, or stdin when no file is given,
and prints it with the proxy's host, base path and key/hash security
definitions substituted. With --diff a patch against the input is
printed instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()

			if len(args) == 1 {
				file, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer file.Close()

				in = file
			}

			doc, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("reading document: %w", err)
			}

			return runRewrite(cmd.OutOrStdout(), string(doc), f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.host, "host", "localhost", "proxy host clients connect to")
	flags.IntVar(&f.port, "port", 8080, "proxy port clients connect to")
	flags.StringVar(&f.appName, "app-name", "", "application name prefixed to the base path")
	flags.StringVar(&f.keyName, "key-name", "esiProxyKey", "query parameter carrying the key id")
	flags.StringVar(&f.hashName, "hash-name", "esiProxyHash", "query parameter carrying the key hash")
	flags.BoolVar(&f.diff, "diff", false, "print a patch against the input instead of the document")

	return cmd
}

func runRewrite(w io.Writer, doc string, f rewriteFlags) error {
	rw := proxy.NewRegexRewriter(proxy.RewriteConfig{
		ProxyHost: f.host,
		ProxyPort: f.port,
		AppName:   f.appName,
		KeyName:   f.keyName,
		HashName:  f.hashName,
	})

	out := rw.RewriteText(doc)

	if !f.diff {
		_, err := io.WriteString(w, out)
		return err
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(doc, out, false))
	_, err := io.WriteString(w, dmp.PatchToText(dmp.PatchMake(doc, diffs)))

	return err
}
