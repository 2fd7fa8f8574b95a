package main

import (
	"fmt"
	"os"

	"github.com/samvad-hq/listing-filter/internal/app"
	"github.com/samvad-hq/listing-filter/pkg/httpclient"

	"github.com/spf13/cobra"
)

var (
	filterOut  string
	filterShow bool
)

var filterCmd = &cobra.Command{
	Use:   "filter [file|url|-]",
	Short: "Filter a listing page once and print the result",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := "-"
		if len(args) == 1 {
			src = args[0]
		}

		client := httpclient.NewRestyClient(env.cfg.HTTPTimeout, env.cfg.UserAgent)
		p, err := app.LoadPage(cmd.Context(), src, cmd.InOrStdin(), client, env.layout)
		if err != nil {
			return err
		}

		res, err := app.Filter(p, env.store, app.FilterOptions{Show: filterShow}, env.log)
		if err != nil {
			return err
		}
		env.log.InfoObj("listing page filtered", "filter_result", res)

		if err := writeOutput(cmd, filterOut, res.HTML); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), res.Status)
		return nil
	},
}

func writeOutput(cmd *cobra.Command, path, html string) error {
	if path == "" || path == "-" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), html)
		return err
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func init() {
	filterCmd.Flags().StringVarP(&filterOut, "out", "o", "", "write filtered HTML to this file (default stdout)")
	filterCmd.Flags().BoolVar(&filterShow, "show", false, "reveal blocked rows instead of hiding them")
	rootCmd.AddCommand(filterCmd)
}
