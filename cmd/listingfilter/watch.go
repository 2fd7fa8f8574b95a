package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/samvad-hq/listing-filter/internal/app"

	"github.com/spf13/cobra"
)

var (
	watchOut  string
	watchShow bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-filter a listing page file whenever it or the blocklist changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pagePath := args[0]
		if watchOut != "" && watchOut != "-" {
			a, _ := filepath.Abs(pagePath)
			b, _ := filepath.Abs(watchOut)
			if a == b {
				return fmt.Errorf("--out must differ from the watched file")
			}
		}

		storePath := ""
		if f, ok := env.kv.(interface{ Path() string }); ok {
			storePath = f.Path()
		}

		w, err := app.NewWatcher(app.WatchOptions{
			PagePath:  pagePath,
			Layout:    env.layout,
			StorePath: storePath,
			Debounce:  env.cfg.WatchDebounce,
			Show:      watchShow,
		}, env.store, func(res app.FilterResult) error {
			if err := writeOutput(cmd, watchOut, res.HTML); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), res.Status)
			return nil
		}, env.log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return w.Run(ctx)
	},
}

func init() {
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "write filtered HTML to this file on every run (default stdout)")
	watchCmd.Flags().BoolVar(&watchShow, "show", false, "reveal blocked rows instead of hiding them")
	rootCmd.AddCommand(watchCmd)
}
