package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"snapfeed/internal/models"

	"github.com/spf13/cobra"
)

// emit prints v as JSON under --json, otherwise runs text.
func emit(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func badge(on bool, mark string) string {
	if on {
		return mark
	}
	return ""
}

func writePosts(w io.Writer, posts []models.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAUTHOR\tLIKES\tCOMMENTS\tAGE\t\tCAPTION")
	for _, p := range posts {
		marks := strings.TrimSpace(badge(p.LikedByMe, "♥") + " " + badge(p.SavedByMe, "★"))
		fmt.Fprintf(tw, "%d\t@%s\t%d\t%d\t%s\t%s\t%s\n",
			p.ID, p.Author.Username, p.LikeCount, p.CommentCount, ago(p.CreatedAt), marks, p.Caption)
	}
	tw.Flush()
}

func writePost(w io.Writer, p models.Post, comments []models.Comment) {
	fmt.Fprintf(w, "Post %d by @%s (%s)\n", p.ID, p.Author.Username, ago(p.CreatedAt))
	fmt.Fprintf(w, "  %s\n", p.ImageURL)
	if p.Caption != "" {
		fmt.Fprintf(w, "  %s\n", p.Caption)
	}
	fmt.Fprintf(w, "  %d likes%s, %d comments%s\n",
		p.LikeCount, badge(p.LikedByMe, " (liked)"), p.CommentCount, badge(p.SavedByMe, ", saved"))
	if comments == nil {
		return
	}
	if len(comments) == 0 {
		fmt.Fprintln(w, "No comments yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range comments {
		fmt.Fprintf(tw, "  #%d\t@%s\t%s\t%s\n", c.ID, c.Author.Username, ago(c.CreatedAt), c.Content)
	}
	tw.Flush()
}

func writeProfile(w io.Writer, p models.Profile) {
	fmt.Fprintf(w, "%s (@%s)%s\n", p.Name, p.Username, badge(p.IsFollowing, " · following"))
	if p.Bio != "" {
		fmt.Fprintf(w, "  %s\n", p.Bio)
	}
	fmt.Fprintf(w, "  %d posts  %d followers  %d following\n", p.Stats.Posts, p.Stats.Followers, p.Stats.Following)
}

func writeUsers(w io.Writer, users []models.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, u := range users {
		fmt.Fprintf(tw, "@%s\t%s\n", u.Username, u.Name)
	}
	tw.Flush()
}
