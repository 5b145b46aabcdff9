package store

import (
	"context"
	"errors"
	"testing"

	"snapfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detailFixture(t *testing.T, post models.Post, comments ...models.Comment) *fixture {
	t.Helper()
	f := loadedFixture(t, post)
	f.posts.get = func(context.Context, models.ID) (models.Post, error) { return post, nil }
	f.comments.list = func(context.Context, models.ID, int, int) (models.Page[models.Comment], error) {
		return models.Page[models.Comment]{Items: comments}, nil
	}
	require.NoError(t, f.store.LoadPostDetail(context.Background(), post.ID))
	return f
}

func TestLoadPostDetail(t *testing.T) {
	f := detailFixture(t, models.Post{ID: 4, CommentCount: 1}, models.Comment{ID: 1, Content: "hi"})
	d := f.store.Detail()
	require.NotNil(t, d.Post)
	assert.Equal(t, models.ID(4), d.Post.ID)
	assert.Len(t, d.Comments, 1)
	assert.False(t, d.IsLoading)

	f.store.CloseDetail()
	assert.Nil(t, f.store.Detail().Post)
}

func TestLoadPostDetail_CommentsFailure(t *testing.T) {
	f := newFixture()
	f.posts.get = func(context.Context, models.ID) (models.Post, error) { return models.Post{ID: 4}, nil }
	f.comments.list = func(context.Context, models.ID, int, int) (models.Page[models.Comment], error) {
		return models.Page[models.Comment]{}, errors.New("boom")
	}
	require.NoError(t, f.store.LoadPostDetail(context.Background(), 4))
	d := f.store.Detail()
	assert.NotNil(t, d.Post)
	assert.NotNil(t, d.Comments)
	assert.Empty(t, d.Comments)
}

func TestLoadPostDetail_NotFound(t *testing.T) {
	f := newFixture()
	f.posts.get = func(context.Context, models.ID) (models.Post, error) {
		return models.Post{}, models.NewHTTPError(404, "")
	}
	f.comments.list = func(context.Context, models.ID, int, int) (models.Page[models.Comment], error) {
		return models.Page[models.Comment]{}, nil
	}
	require.Error(t, f.store.LoadPostDetail(context.Background(), 4))
	assert.Equal(t, "Failed to load post", f.store.Detail().Error)
}

func TestAddAndDeleteComment(t *testing.T) {
	f := detailFixture(t, models.Post{ID: 4, CommentCount: 1}, models.Comment{ID: 1, Content: "first"})
	f.comments.add = func(_ context.Context, _ models.ID, content string) (models.Comment, error) {
		return models.Comment{ID: 2, Content: content}, nil
	}
	f.comments.delete = func(context.Context, models.ID) error { return nil }
	ctx := context.Background()

	_, err := f.store.AddComment(ctx, 4, "second")
	require.NoError(t, err)
	d := f.store.Detail()
	assert.Equal(t, "second", d.Comments[0].Content)
	assert.Equal(t, 2, d.Post.CommentCount)
	assert.Equal(t, 2, f.store.Posts().Feed[0].CommentCount)

	require.NoError(t, f.store.DeleteComment(ctx, 4, 2))
	require.NoError(t, f.store.DeleteComment(ctx, 4, 1))
	require.NoError(t, f.store.DeleteComment(ctx, 4, 1))
	d = f.store.Detail()
	assert.Empty(t, d.Comments)
	assert.Equal(t, 0, d.Post.CommentCount, "count never drops below zero")
}

func TestAddComment_BlankRejected(t *testing.T) {
	f := detailFixture(t, models.Post{ID: 4})
	_, err := f.store.AddComment(context.Background(), 4, "   ")
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestDeletePost_ClearsDetail(t *testing.T) {
	f := detailFixture(t, models.Post{ID: 4})
	f.posts.delete = func(context.Context, models.ID) error { return nil }
	require.NoError(t, f.store.DeletePost(context.Background(), 4))
	assert.Nil(t, f.store.Detail().Post)
	assert.Empty(t, f.store.Posts().Feed)
}
