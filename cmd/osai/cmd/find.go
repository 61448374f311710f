package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/osai-labs/osai/internal/daemon"
	"github.com/osai-labs/osai/internal/model"
	"github.com/osai-labs/osai/internal/ui"
)

func newFindCmd() *cobra.Command {
	var (
		local   bool
		noColor bool
		rows    int
	)

	cmd := &cobra.Command{
		Use:   "find [query]",
		Short: "Pick a file, folder or application interactively",
		Long: `Open an interactive picker over the index and print the chosen path.

The picker is drawn on stderr so the chosen path can be captured from
stdout. Nothing is printed when the picker is dismissed with Esc.`,
		Example: `  # Open the chosen entry
  xdg-open "$(osai find)"

  # Start with a query
  osai find budget`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			search, err := finderSearch(ctx, local)
			if err != nil {
				return err
			}

			chosen, err := ui.RunFinder(ctx, search, ui.FinderOptions{
				Input:        cmd.InOrStdin(),
				Output:       cmd.ErrOrStderr(),
				InitialQuery: strings.Join(args, " "),
				NoColor:      noColor,
				MaxVisible:   rows,
			})
			if errors.Is(err, ui.ErrNoSelection) {
				return nil
			}
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), chosen.Path)
			return err
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Build a local index instead of using the daemon")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colors")
	cmd.Flags().IntVar(&rows, "rows", 0, "Maximum result rows to show")

	return cmd
}

// finderSearch returns the picker's query function. A local index is built
// once up front and reused for every keystroke.
func finderSearch(ctx context.Context, local bool) (ui.SearchFunc, error) {
	if !local {
		if client := runningDaemon(); client != nil {
			return func(ctx context.Context, q string) ([]model.SearchResult, error) {
				return client.Search(ctx, daemon.SearchParams{Query: q})
			}, nil
		}
	}

	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	ix, err := buildLocalIndex(ctx, settings, nil)
	if err != nil {
		return nil, err
	}
	return ix.Search, nil
}
