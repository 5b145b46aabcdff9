package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"snapfeed/internal/models"
	"snapfeed/internal/service"

	"github.com/spf13/cobra"
)

var (
	listPage  int
	listPages int

	postCaption string
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show posts from you and the accounts you follow",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTimeline(cmd, application.Store.FetchFeed, application.Store.FetchMoreFeed, func() ([]models.Post, bool, string) {
			st := application.Store.Posts()
			return st.Feed, st.FeedHasMore, st.Error
		})
	},
}

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Show recent posts from everyone",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTimeline(cmd, application.Store.FetchExplore, application.Store.FetchMoreExplore, func() ([]models.Post, bool, string) {
			st := application.Store.Posts()
			return st.Explore, st.ExploreHasMore, st.Error
		})
	},
}

// runTimeline loads --page and then up to --pages-1 following pages.
func runTimeline(cmd *cobra.Command, fetch func(context.Context, int) error, more func(context.Context) error,
	read func() ([]models.Post, bool, string)) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := fetch(ctx, max(1, listPage)); err != nil {
		_, _, msg := read()
		if msg != "" {
			return errors.New(msg)
		}
		return err
	}
	for i := 1; i < listPages; i++ {
		if _, hasMore, _ := read(); !hasMore {
			break
		}
		if err := more(ctx); err != nil {
			return err
		}
	}
	posts, hasMore, _ := read()
	return emit(cmd, posts, func(w io.Writer) {
		writePosts(w, posts)
		if hasMore {
			fmt.Fprintln(w, "More posts available; use --pages to load them.")
		}
	})
}

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Show, create or delete posts",
}

var postShowCmd = &cobra.Command{
	Use:   "show POST_ID",
	Short: "Show a post with its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := models.ParseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		detail, err := loadDetail(ctx, id)
		if err != nil {
			return err
		}
		comments := detail.Comments
		if comments == nil {
			comments = []models.Comment{}
		}
		return emit(cmd, map[string]any{"post": detail.Post, "comments": comments}, func(w io.Writer) {
			writePost(w, *detail.Post, comments)
		})
	},
}

var postCreateCmd = &cobra.Command{
	Use:   "create IMAGE_PATH",
	Short: "Upload an image as a new post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := service.ReadImage(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		p, err := application.Store.CreatePost(ctx, img, postCaption)
		if err != nil {
			return err
		}
		return emit(cmd, p, func(w io.Writer) {
			fmt.Fprintf(w, "Posted %d.\n", p.ID)
		})
	},
}

var postDeleteCmd = &cobra.Command{
	Use:   "delete POST_ID",
	Short: "Delete one of your posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := models.ParseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := application.Store.DeletePost(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted post %d.\n", id)
		return nil
	},
}

var postLikesCmd = &cobra.Command{
	Use:   "likes POST_ID",
	Short: "List who liked a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := models.ParseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		users, err := application.Services.Likes.PostLikes(ctx, id)
		if err != nil {
			return err
		}
		return emit(cmd, users, func(w io.Writer) { writeUsers(w, users) })
	},
}

// loadDetail opens a post and reports the store's error message on failure.
func loadDetail(ctx context.Context, id models.ID) (detailView, error) {
	if err := application.Store.LoadPostDetail(ctx, id); err != nil {
		if msg := application.Store.Detail().Error; msg != "" {
			return detailView{}, errors.New(msg)
		}
		return detailView{}, err
	}
	d := application.Store.Detail()
	return detailView{Post: d.Post, Comments: d.Comments}, nil
}

type detailView struct {
	Post     *models.Post
	Comments []models.Comment
}

func toggleCommand(use, short string, toggle func(context.Context, models.ID) error, done func(models.Post) string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " POST_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := models.ParseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			// Toggles work on posts held in the store, so open the post first.
			if _, err := loadDetail(ctx, id); err != nil {
				return err
			}
			if err := toggle(ctx, id); err != nil {
				return err
			}
			p := *application.Store.Detail().Post
			return emit(cmd, p, func(w io.Writer) {
				fmt.Fprintln(w, done(p))
			})
		},
	}
}

var likeCmd = toggleCommand("like", "Like or unlike a post", func(ctx context.Context, id models.ID) error {
	return application.Store.ToggleLike(ctx, id)
}, func(p models.Post) string {
	if p.LikedByMe {
		return fmt.Sprintf("Liked post %d (%d likes).", p.ID, p.LikeCount)
	}
	return fmt.Sprintf("Unliked post %d (%d likes).", p.ID, p.LikeCount)
})

var saveCmd = toggleCommand("save", "Save or unsave a post", func(ctx context.Context, id models.ID) error {
	return application.Store.ToggleSave(ctx, id)
}, func(p models.Post) string {
	if p.SavedByMe {
		return fmt.Sprintf("Saved post %d.", p.ID)
	}
	return fmt.Sprintf("Removed post %d from saved.", p.ID)
})

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "List your saved posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := application.Store.LoadSavedPosts(ctx); err != nil {
			return err
		}
		posts := application.Store.Profile().SavedPosts
		return emit(cmd, posts, func(w io.Writer) { writePosts(w, posts) })
	},
}

var likedCmd = &cobra.Command{
	Use:   "liked",
	Short: "List posts you liked",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		page, err := application.Services.Likes.LikedPosts(ctx, max(1, listPage), 0)
		if err != nil {
			return err
		}
		return emit(cmd, page, func(w io.Writer) { writePosts(w, page.Items) })
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Add or delete comments",
}

var commentAddCmd = &cobra.Command{
	Use:   "add POST_ID TEXT...",
	Short: "Comment on a post",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := models.ParseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		c, err := application.Store.AddComment(ctx, id, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		return emit(cmd, c, func(w io.Writer) {
			fmt.Fprintf(w, "Comment %d added.\n", c.ID)
		})
	},
}

var commentDeleteCmd = &cobra.Command{
	Use:   "delete POST_ID COMMENT_ID",
	Short: "Delete a comment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		postID, err := models.ParseID(args[0])
		if err != nil {
			return err
		}
		commentID, err := models.ParseID(args[1])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := application.Store.DeleteComment(ctx, postID, commentID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted comment %d.\n", commentID)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{feedCmd, exploreCmd, likedCmd} {
		c.Flags().IntVar(&listPage, "page", 1, "Page to start from")
	}
	for _, c := range []*cobra.Command{feedCmd, exploreCmd} {
		c.Flags().IntVar(&listPages, "pages", 1, "Number of pages to load")
	}
	postCreateCmd.Flags().StringVar(&postCaption, "caption", "", "Caption for the post")

	postCmd.AddCommand(postShowCmd, postLikesCmd, postCreateCmd, postDeleteCmd)
	commentCmd.AddCommand(commentAddCmd, commentDeleteCmd)

	optionalAuth(exploreCmd, postShowCmd, postLikesCmd)
	requiresAuth(feedCmd, postCreateCmd, postDeleteCmd, likeCmd, saveCmd, savedCmd, likedCmd,
		commentAddCmd, commentDeleteCmd)
}
