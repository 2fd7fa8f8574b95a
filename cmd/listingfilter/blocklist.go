package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/samvad-hq/listing-filter/internal/app"
	"github.com/samvad-hq/listing-filter/internal/blocklist"
	"github.com/samvad-hq/listing-filter/internal/seller"

	"github.com/spf13/cobra"
)

var (
	flagYes      bool
	flagEditFrom string
)

var blocklistCmd = &cobra.Command{
	Use:   "blocklist",
	Short: "Show or edit the blocked sellers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listEntries(cmd)
	},
}

var blocklistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List blocked sellers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listEntries(cmd)
	},
}

var blocklistAddCmd = &cobra.Command{
	Use:   "add <seller>...",
	Short: "Add sellers to the blocklist",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries := append(env.store.Load(), args...)
		return saveEntries(cmd, entries)
	},
}

var blocklistRemoveCmd = &cobra.Command{
	Use:   "remove <seller>...",
	Short: "Remove sellers from the blocklist (matched by canonical name)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		current := env.store.Load()
		kept := make([]string, 0, len(current))
		for _, e := range current {
			if !matchesAny(e, args) {
				kept = append(kept, e)
			}
		}
		if len(kept) == len(current) {
			fmt.Fprintln(cmd.ErrOrStderr(), "No matching sellers in the blocklist.")
			return nil
		}
		return saveEntries(cmd, kept)
	},
}

var blocklistEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the blocklist as text (one seller per line, commas allowed)",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readEditedText(cmd)
		if err != nil {
			return err
		}
		return saveEntries(cmd, blocklist.ParseText(text))
	},
}

var blocklistResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the built-in blocklist",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !env.store.Reset() {
			return app.ErrSaveFailed
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Blocklist reset to defaults.")
		return listEntries(cmd)
	},
}

func listEntries(cmd *cobra.Command) error {
	entries := env.store.Load()
	if len(entries) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "Blocklist is empty.")
		return nil
	}
	_, err := fmt.Fprint(cmd.OutOrStdout(), blocklist.FormatText(entries))
	return err
}

// saveEntries persists entries, asking for confirmation when the result is empty.
func saveEntries(cmd *cobra.Command, entries []string) error {
	clean := blocklist.Normalize(entries)
	if len(clean) == 0 && !flagYes {
		if !interactive(cmd.InOrStdin()) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Refusing to save an empty blocklist without --yes.")
			return nil
		}
		prompt := promptui.Prompt{
			Label:     "Save an empty blocklist (nothing will be hidden)",
			IsConfirm: true,
			Stdin:     io.NopCloser(cmd.InOrStdin()),
			Stdout:    nopWriteCloser{cmd.ErrOrStderr()},
		}
		if _, err := prompt.Run(); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
			return nil
		}
	}

	if !env.store.Save(clean) {
		return fmt.Errorf("%w (see log for details)", app.ErrSaveFailed)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved %d blocked seller(s).\n", len(clean))
	return nil
}

func interactive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func readEditedText(cmd *cobra.Command) (string, error) {
	switch flagEditFrom {
	case "-":
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(raw), nil
	case "":
		return editInEditor(cmd, blocklist.FormatText(env.store.Load()))
	default:
		raw, err := os.ReadFile(flagEditFrom)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", flagEditFrom, err)
		}
		return string(raw), nil
	}
}

func editInEditor(cmd *cobra.Command, initial string) (string, error) {
	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}

	tmp, err := os.CreateTemp("", "listingfilter-blocklist-*.txt")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(initial); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	parts := strings.Fields(editor)
	editCmd := exec.Command(parts[0], append(parts[1:], tmp.Name())...)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	if err := editCmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("editor exited with status %d; blocklist unchanged", exitErr.ExitCode())
		}
		return "", fmt.Errorf("failed to open editor: %w", err)
	}

	raw, err := os.ReadFile(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("read edited file: %w", err)
	}
	return string(raw), nil
}

func init() {
	blocklistCmd.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false, "do not ask for confirmation")
	blocklistEditCmd.Flags().StringVar(&flagEditFrom, "from", "", "read the new blocklist from a file, or - for stdin, instead of $EDITOR")

	blocklistCmd.AddCommand(blocklistListCmd, blocklistAddCmd, blocklistRemoveCmd, blocklistEditCmd, blocklistResetCmd)
	rootCmd.AddCommand(blocklistCmd)
}

func matchesAny(entry string, names []string) bool {
	for _, name := range names {
		if seller.Same(entry, name) {
			return true
		}
	}
	return false
}
