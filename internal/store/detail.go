package store

import (
	"context"

	"snapfeed/internal/models"
	"snapfeed/internal/observability"
	"snapfeed/internal/validation"

	"golang.org/x/sync/errgroup"
)

// DetailState is the open post and its comments.
type DetailState struct {
	Post            *models.Post
	Comments        []models.Comment
	IsLoading       bool
	CommentsLoading bool
	Error           string
}

// Detail returns a snapshot of the post detail slice.
func (s *Store) Detail() DetailState {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.detail
	if d.Post != nil {
		p := *d.Post
		d.Post = &p
	}
	d.Comments = append([]models.Comment(nil), d.Comments...)
	return d
}

// LoadPostDetail opens a post, fetching it and its first page of comments concurrently.
// Failing to load comments leaves the list empty.
func (s *Store) LoadPostDetail(ctx context.Context, id models.ID) error {
	span, ctx := observability.TraceStoreAction(ctx, string(SliceDetail), "load")
	defer span.End()

	s.mu.Lock()
	s.postGen++
	gen := s.postGen
	s.detail.IsLoading = true
	s.detail.CommentsLoading = true
	s.detail.Error = ""
	s.mu.Unlock()
	s.notify(SliceDetail, "load/pending")

	var (
		post     models.Post
		comments []models.Comment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		post, err = s.deps.Posts.Get(gctx, id)
		return err
	})
	g.Go(func() error {
		page, err := s.deps.Comments.List(gctx, id, 1, s.opts.CommentsPageSize)
		if err != nil {
			if !isCanceled(err) {
				s.detailLog.LogError(ctx, "load/comments", err)
			}
			return nil
		}
		comments = page.Items
		return nil
	})
	err := g.Wait()

	s.mu.Lock()
	if gen != s.postGen {
		s.mu.Unlock()
		observability.StaleResponsesDropped.WithLabelValues("detail").Inc()
		return nil
	}
	if err != nil {
		s.detail = DetailState{}
		if !isCanceled(err) {
			s.detail.Error = models.ServerMessage(err, "Failed to load post")
		}
		s.mu.Unlock()
		span.SetError(err)
		s.detailLog.LogError(ctx, "load", err)
		s.notify(SliceDetail, "load/rejected")
		return err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	s.detail = DetailState{Post: &post, Comments: comments}
	// Lists may hold an older copy of the post.
	s.eachPost(id, func(p *models.Post) { *p = post })
	s.mu.Unlock()

	s.detailLog.LogAction(ctx, "load", fields("post_id", id, "comments", len(comments)))
	s.notify(SliceDetail, "load/fulfilled")
	return nil
}

// CloseDetail forgets the open post.
func (s *Store) CloseDetail() {
	s.mu.Lock()
	s.detail = DetailState{}
	s.postGen++
	s.mu.Unlock()
	s.notify(SliceDetail, "close")
}

// AddComment posts a comment and puts it first. The post's comment count rises wherever it is held.
func (s *Store) AddComment(ctx context.Context, postID models.ID, content string) (models.Comment, error) {
	if err := validation.ValidateComment(content); err != nil {
		return models.Comment{}, err
	}
	span, ctx := observability.TraceStoreAction(ctx, string(SliceDetail), "add_comment")
	defer span.End()

	c, err := s.deps.Comments.Add(ctx, postID, content)
	if err != nil {
		span.SetError(err)
		s.detailLog.LogError(ctx, "add_comment", err)
		return models.Comment{}, err
	}

	s.mu.Lock()
	if c.Author.ID == 0 && s.auth.User != nil {
		c.Author = s.auth.User.Author()
	}
	if s.detail.Post != nil && s.detail.Post.ID == postID {
		s.detail.Comments = append([]models.Comment{c}, s.detail.Comments...)
	}
	s.eachPost(postID, func(p *models.Post) { p.CommentCount++ })
	s.mu.Unlock()

	s.detailLog.LogAction(ctx, "add_comment", fields("post_id", postID, "comment_id", c.ID))
	s.notify(SliceDetail, "add_comment")
	return c, nil
}

// DeleteComment removes a comment and lowers the post's comment count, never below zero.
func (s *Store) DeleteComment(ctx context.Context, postID, commentID models.ID) error {
	span, ctx := observability.TraceStoreAction(ctx, string(SliceDetail), "delete_comment")
	defer span.End()

	if err := s.deps.Comments.Delete(ctx, commentID); err != nil {
		span.SetError(err)
		s.detailLog.LogError(ctx, "delete_comment", err)
		return err
	}

	s.mu.Lock()
	if s.detail.Post != nil && s.detail.Post.ID == postID {
		kept := s.detail.Comments[:0]
		for _, c := range s.detail.Comments {
			if c.ID != commentID {
				kept = append(kept, c)
			}
		}
		s.detail.Comments = kept
	}
	s.eachPost(postID, func(p *models.Post) { p.CommentCount = max(0, p.CommentCount-1) })
	s.mu.Unlock()

	s.detailLog.LogAction(ctx, "delete_comment", fields("post_id", postID, "comment_id", commentID))
	s.notify(SliceDetail, "delete_comment")
	return nil
}
