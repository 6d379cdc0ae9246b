package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"spinlog/internal/catalog"
	"spinlog/internal/models"
)

var errCatalogDisabled = errors.New("catalog search needs spotify.client_id and spotify.client_secret")

func newSearchCmd() *cobra.Command {
	var itemType string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find albums, tracks or artists to review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseType(itemType)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return runSearch(ctx, cmd.OutOrStdout(), a.catalog, args[0], t, limit)
			})
		},
	}

	cmd.Flags().StringVar(&itemType, "type", "album", "Item type: album, track or artist")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of results")
	return cmd
}

func runSearch(ctx context.Context, out io.Writer, cat catalog.Catalog, query string, itemType models.ItemType, limit int) error {
	if cat == nil {
		return errCatalogDisabled
	}
	items, err := cat.Search(ctx, query, itemType, limit)
	if err != nil {
		return fmt.Errorf("search catalog: %w", err)
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "No results")
		return nil
	}
	for _, item := range items {
		line := fmt.Sprintf("[%s %s] %s", item.Ref.Type, item.Ref.SpotifyID, item.Name)
		if item.ArtistName != "" {
			line += " - " + item.ArtistName
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
