package apiclient

import (
	"encoding/json"
	"testing"

	"snapfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractList_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		keys  []string
		count int
	}{
		{"data.items", `{"data":{"items":[{"id":1},{"id":2}],"pagination":{}}}`, []string{"items"}, 2},
		{"top-level items", `{"items":[{"id":1}]}`, []string{"items"}, 1},
		{"data array", `{"success":true,"data":[{"id":1},{"id":2},{"id":3}]}`, []string{"items"}, 3},
		{"bare array", `[{"id":1}]`, []string{"items"}, 1},
		{"data.posts", `{"data":{"posts":[{"id":4}]}}`, []string{"posts"}, 1},
		{"second key", `{"data":{"comments":[{"id":4},{"id":5}]}}`, []string{"items", "comments"}, 2},
		{"not a list", `{"data":{"message":"nothing"}}`, []string{"items"}, 0},
		{"null data", `{"data":null}`, []string{"items"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := ExtractList[models.Post](json.RawMessage(tt.raw), tt.keys...)
			require.NoError(t, err)
			assert.Len(t, items, tt.count)
			assert.NotNil(t, items)
		})
	}
}

func TestExtractList_DecodeError(t *testing.T) {
	_, err := ExtractList[models.Post](json.RawMessage(`{"data":[{"id":"abc"}]}`), "items")
	assert.True(t, models.HasCode(err, models.CodeDecode))
}

func TestExtractEntity_Precedence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		keys []string
		id   models.ID
	}{
		{"data.post", `{"data":{"post":{"id":1}}}`, []string{"post"}, 1},
		{"top post", `{"post":{"id":2}}`, []string{"post"}, 2},
		{"data", `{"data":{"id":3}}`, []string{"post"}, 3},
		{"body", `{"id":4}`, []string{"post"}, 4},
		{"data.profile wins over data", `{"success":true,"data":{"profile":{"id":5},"stats":{}}}`, []string{"profile"}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ExtractEntity[models.Post](json.RawMessage(tt.raw), tt.keys...)
			require.NoError(t, err)
			assert.Equal(t, tt.id, p.ID)
		})
	}

	_, err := ExtractEntity[models.Post](json.RawMessage(`[1,2]`))
	assert.True(t, models.HasCode(err, models.CodeDecode))
}

func TestExtractPagination(t *testing.T) {
	p := ExtractPagination(json.RawMessage(`{"data":{"pagination":{"page":2,"limit":10,"total":35,"totalPages":4}}}`), 1, 20)
	assert.Equal(t, Pagination{Page: 2, Limit: 10, Total: 35, TotalPages: 4, Present: true}, p)

	p = ExtractPagination(json.RawMessage(`{"data":{"pagination":{"currentPage":3,"pageSize":12,"totalItems":30}}}`), 1, 20)
	assert.Equal(t, Pagination{Page: 3, Limit: 12, Total: 30, TotalPages: 3, Present: true}, p)

	p = ExtractPagination(json.RawMessage(`{"pagination":{"page":1}}`), 1, 20)
	assert.Equal(t, Pagination{Page: 1, Limit: 20, Present: true}, p)

	p = ExtractPagination(json.RawMessage(`{"data":[]}`), 5, 10)
	assert.Equal(t, Pagination{Page: 5, Limit: 10}, p)
}

func TestUnwrapAndFlags(t *testing.T) {
	assert.JSONEq(t, `{"id":1}`, string(Unwrap(json.RawMessage(`{"data":{"id":1}}`))))
	assert.JSONEq(t, `{"data":null,"id":2}`, string(Unwrap(json.RawMessage(`{"data":null,"id":2}`))))

	ok, found := SuccessFlag(json.RawMessage(`{"success":false,"message":"Email taken"}`))
	assert.True(t, found)
	assert.False(t, ok)
	assert.Equal(t, "Email taken", Message(json.RawMessage(`{"success":false,"message":"Email taken"}`)))

	_, found = SuccessFlag(json.RawMessage(`{"data":{}}`))
	assert.False(t, found)

	assert.Equal(t, "abc", StringField(json.RawMessage(`{"data":{"token":"abc"}}`), "token"))
	assert.Equal(t, "xyz", StringField(json.RawMessage(`{"token":"xyz"}`), "token"))
}
