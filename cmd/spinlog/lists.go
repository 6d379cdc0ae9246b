package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"spinlog/internal/lists"
	"spinlog/internal/models"
)

func newListsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "Show your lists in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				userID, err := a.requireUser()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, list := range a.lists.Load(ctx, userID) {
					fmt.Fprintf(out, "[%s] %s (%d items)\n", list.ID, list.Title, len(list.ListItems))
					for _, item := range list.ListItems {
						line := fmt.Sprintf("  %d. %s - %s", item.Position+1, item.ItemName, item.ArtistName)
						if art := item.Artwork(); art != "" {
							line += "  " + art
						}
						fmt.Fprintln(out, line)
					}
				}
				return nil
			})
		},
	}
}

func newListCreateCmd() *cobra.Command {
	var in lists.CreateInput

	cmd := &cobra.Command{
		Use:   "list-create <title>",
		Short: "Create an empty list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				userID, err := a.requireUser()
				if err != nil {
					return err
				}
				in.UserID, in.Title = userID, args[0]
				list, err := a.lists.Create(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created list %s\n", list.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Description, "description", "", "List description")
	cmd.Flags().BoolVar(&in.IsPublic, "public", false, "Make the list public")
	return cmd
}

func newListMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-move <list-id> <from> <to>",
		Short: "Move an item within a list (1-based positions)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("from: %w", err)
			}
			to, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("to: %w", err)
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				userID, err := a.requireUser()
				if err != nil {
					return err
				}

				var target *models.List
				all := a.lists.Load(ctx, userID)
				for i := range all {
					if all[i].ID == models.ID(args[0]) {
						target = &all[i]
						break
					}
				}
				if target == nil {
					return fmt.Errorf("list %s not found", args[0])
				}

				saved, err := a.lists.Reorder(ctx, *target, from-1, to-1)
				if err != nil {
					return err
				}
				for _, item := range saved.ListItems {
					fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s\n", item.Position+1, item.ItemName)
				}
				return nil
			})
		},
	}
}
