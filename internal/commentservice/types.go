package commentservice

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog"
	"github.com/sushihentaime/devlog/internal/common"
)

type CommentService struct {
	m          *CommentModel
	mb         common.MessageProducer
	secretCost int
	logger     zerolog.Logger
}

type CommentModel struct {
	db *sql.DB
}

// Comment never carries the password hash.
type Comment struct {
	ID         int       `json:"id"`
	PostID     int       `json:"post_id"`
	UserID     *string   `json:"user_id,omitempty"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateCommentInput struct {
	PostID     int    `json:"post_id"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
	Password   string `json:"password"`
}

type UpdateCommentInput struct {
	Content  string `json:"content"`
	Password string `json:"password"`
}

// CommentCreatedEvent is published on common.CommentCreatedKey after a comment is stored.
type CommentCreatedEvent struct {
	CommentID  int       `json:"comment_id"`
	PostID     int       `json:"post_id"`
	PostTitle  string    `json:"post_title"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
