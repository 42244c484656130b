package likeservice

import (
	"database/sql"

	"github.com/rs/zerolog"
)

type LikeService struct {
	m      *LikeModel
	logger zerolog.Logger
}

type LikeModel struct {
	db *sql.DB
}

type LikeStatus struct {
	Count int  `json:"count"`
	Liked bool `json:"liked"`
}

type ToggleInput struct {
	PostID int `json:"post_id"`
}
