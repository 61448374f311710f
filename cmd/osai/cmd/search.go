package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/osai-labs/osai/internal/daemon"
	"github.com/osai-labs/osai/internal/model"
	"github.com/osai-labs/osai/internal/output"
)

type searchOptions struct {
	format string
	types  []string
	limit  int
	local  bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search files, folders and applications",
		Long: `Search the index for files, folders and applications.

Results are ranked: folders first, then files, then applications, each
ordered by how well the name matches the query. The daemon's index is used when it is
running; otherwise a one-off index is built first, which can be slow.`,
		Example: `  # Search everything
  osai search report

  # Only applications, as JSON
  osai search -t application -f json chrome

  # Paths only, for scripting
  osai search -f paths invoice | head -1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json, paths")
	cmd.Flags().StringSliceVarP(&opts.types, "type", "t", nil, "Filter by type: file, folder, application (repeatable)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum results to print (0 = all)")
	cmd.Flags().BoolVar(&opts.local, "local", false, "Build a local index instead of using the daemon")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.limit < 0 {
		return fmt.Errorf("limit must be non-negative, got %d", opts.limit)
	}
	params := daemon.SearchParams{Query: query}
	for _, t := range opts.types {
		rt, err := model.ParseResultType(t)
		if err != nil {
			return err
		}
		params.Types = append(params.Types, rt)
	}
	if err := params.Validate(); err != nil {
		return err
	}

	results, err := searchWith(ctx, params, opts.local)
	if err != nil {
		return err
	}
	if opts.limit > 0 && len(results) > opts.limit {
		results = results[:opts.limit]
	}

	return output.New(cmd.OutOrStdout()).Results(results, format)
}

// searchWith answers params from the daemon, or from a transient local
// index when the daemon is not running or local is set.
func searchWith(ctx context.Context, params daemon.SearchParams, local bool) ([]model.SearchResult, error) {
	if !local {
		if client := runningDaemon(); client != nil {
			slog.Debug("searching via daemon", slog.String("query", params.Query))
			return client.Search(ctx, params)
		}
	}

	slog.Debug("daemon not running, building local index", slog.String("query", params.Query))
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	ix, err := buildLocalIndex(ctx, settings, nil)
	if err != nil {
		return nil, err
	}
	results, err := ix.Search(ctx, params.Query)
	if err != nil {
		return nil, err
	}

	kept := results[:0]
	for _, r := range results {
		if params.Keep(r) {
			kept = append(kept, r)
		}
	}
	return kept, nil
}
