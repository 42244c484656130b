package postservice

import (
	"database/sql"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sushihentaime/devlog/internal/common"
)

const (
	MaxTagsPerPost = 10
	ExcerptLength  = 150

	defaultLimit = 20
	maxLimit     = 100
	// tag search results are capped, the full listing is not
	tagSearchLimit = 10

	postCacheTTL = time.Minute
	tagCacheTTL  = 5 * time.Minute
)

type Post struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	// Excerpt is derived from Content when the author leaves it empty.
	Excerpt    *string   `json:"excerpt"`
	Tags       []string  `json:"tags"`
	IsPinned   bool      `json:"is_pinned"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Tag struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
}

// PostInput carries the author-editable fields of a post.
type PostInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Excerpt  string   `json:"excerpt"`
	Tags     []string `json:"tags"`
	IsPinned bool     `json:"is_pinned"`
}

type PostModel struct {
	db *sql.DB
}

type PostService struct {
	m      *PostModel
	c      common.Cache
	logger zerolog.Logger

	// generation is bumped by every invalidation. A read that started before a bump does not
	// leave its row in the cache.
	generation atomic.Uint64
}
