package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"spinlog/internal/activity"
	"spinlog/internal/comments"
	"spinlog/internal/models"
	"spinlog/internal/reviews"
)

func parseType(raw string) (models.ItemType, error) {
	t, ok := models.ParseItemType(raw)
	if !ok {
		return "", fmt.Errorf("unknown type %q (album, track, artist)", raw)
	}
	return t, nil
}

func newReviewsCmd() *cobra.Command {
	var itemType, active string

	cmd := &cobra.Command{
		Use:   "reviews <spotify-id>",
		Short: "Show every review of an album, track or artist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseType(itemType)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				result := a.reviews.Load(ctx, args[0], t, a.session.UserID())
				board := reviews.NewBoard(result)
				if active != "" {
					board.Toggle(models.ID(active))
				}
				printBoard(ctx, cmd.OutOrStdout(), a, board)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&itemType, "type", "album", "Item type: album, track or artist")
	cmd.Flags().StringVar(&active, "expand", "", "Review id to expand with its comments")
	return cmd
}

func printBoard(ctx context.Context, out io.Writer, a *app, board *reviews.Board) {
	if board.ShowAddReview() {
		fmt.Fprintln(out, "+ Add your review: spinlog review <spotify-id> --rating N")
	}
	for _, row := range board.Render() {
		if row.DividerBefore {
			fmt.Fprintln(out, strings.Repeat("-", 40))
		}
		r := row.Review
		counts := a.votes.Track(r.ID, a.session.UserID()).Load(ctx)
		fmt.Fprintf(out, "[%s] %s  %s  ▲%d ▼%d\n",
			r.ID, r.Users.Username, strings.Repeat("★", r.Rating),
			counts.Shown(models.VoteUp), counts.Shown(models.VoteDown))
		if r.Text != "" {
			fmt.Fprintf(out, "    %s\n", r.Text)
		}
		if !row.Expanded {
			continue
		}
		thread := comments.NewThread(a.client, r.ID, a.log)
		for _, c := range thread.Load(ctx) {
			fmt.Fprintf(out, "    (%s) %s: %s\n", comments.ResolveAvatar(c.Users), c.Users.Username, c.Text)
		}
	}
}

func newReviewCmd() *cobra.Command {
	var in reviews.SaveInput
	var itemType string

	cmd := &cobra.Command{
		Use:   "review <spotify-id>",
		Short: "Write or update your review of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseType(itemType)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				userID, err := a.requireUser()
				if err != nil {
					return err
				}
				in.UserID, in.SpotifyID, in.Type = userID, args[0], t

				result, err := a.reviews.Save(ctx, in)
				if err != nil {
					return err
				}
				// The reload after a save is a read and may come back empty.
				if result.Mine == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Saved review (%d/5)\n", in.Rating)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved review %s (%d/5)\n", result.Mine.ID, result.Mine.Rating)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&itemType, "type", "album", "Item type: album, track or artist")
	cmd.Flags().IntVar(&in.Rating, "rating", 0, "Rating from 1 to 5 (required)")
	cmd.Flags().StringVar(&in.Text, "text", "", "Review text")
	cmd.Flags().StringVar(&in.ItemName, "item-name", "", "Item name (looked up when omitted)")
	cmd.Flags().StringVar(&in.ArtistName, "artist-name", "", "Artist name (looked up when omitted)")
	cmd.Flags().StringVar(&in.Image, "image", "", "Cover image URI (looked up when omitted)")
	_ = cmd.MarkFlagRequired("rating")
	return cmd
}

func newVoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote <review-id> <up|down>",
		Short: "Toggle your vote on a review",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := models.Vote(strings.ToLower(args[1]))
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				userID, err := a.requireUser()
				if err != nil {
					return err
				}
				tracker := a.votes.Track(models.ID(args[0]), userID)
				tracker.Load(ctx)

				counts, err := tracker.Toggle(ctx, direction)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "your vote: %s  ▲%d ▼%d\n",
					counts.Own, counts.Shown(models.VoteUp), counts.Shown(models.VoteDown))
				return nil
			})
		},
	}
}

func newCommentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comments <review-id>",
		Short: "List the comments on a review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				thread := comments.NewThread(a.client, models.ID(args[0]), a.log)
				for _, c := range thread.Load(ctx) {
					fmt.Fprintf(cmd.OutOrStdout(), "(%s) %s: %s\n", comments.ResolveAvatar(c.Users), c.Users.Username, c.Text)
				}
				return nil
			})
		},
	}
}

func newCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <review-id> <text>",
		Short: "Reply to a review",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				userID, err := a.requireUser()
				if err != nil {
					return err
				}
				thread := comments.NewThread(a.client, models.ID(args[0]), a.log)
				ok, err := thread.Add(ctx, userID, strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to post")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Posted. %d comments on this review.\n", len(thread.Comments()))
				return nil
			})
		},
	}
}

func newTimelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timeline",
		Short: "Show your five most recent activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if _, err := a.requireUser(); err != nil {
					return err
				}
				if err := a.session.UpdateUserProfile(ctx, nil); err != nil {
					a.log.ReadFailed(ctx, "user.profile", err)
				}

				now := time.Now()
				for _, item := range activity.FromProfile(a.session.Profile()) {
					line := fmt.Sprintf("%-12s %s", activity.FormatDate(now, item.CreatedAt), item.Title)
					if item.Subtitle != "" {
						line += " · " + item.Subtitle
					}
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	}
}
