package likeservice

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"
	"github.com/sushihentaime/devlog/internal/common"
)

func NewLikeService(db *sql.DB, logger zerolog.Logger) *LikeService {
	return &LikeService{
		m:      newLikeModel(db),
		logger: logger.With().Str("service", "like").Logger(),
	}
}

// GetStatus returns the like count of a post and whether id has liked it.
func (s *LikeService) GetStatus(ctx context.Context, postID int, id Identity) (*LikeStatus, error) {
	v := common.NewValidator()
	common.ValidateID(v, postID, "post_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	ok, err := s.m.postExists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrRecordNotFound
	}

	count, err := s.m.count(ctx, s.m.db, postID)
	if err != nil {
		return nil, err
	}

	liked, err := s.m.exists(ctx, postID, id)
	if err != nil {
		return nil, err
	}

	return &LikeStatus{Count: count, Liked: liked}, nil
}

// Toggle removes the identity's like if it has one, otherwise adds it, and returns the resulting state.
// When a concurrent toggle inserted the row first the result still reports liked.
func (s *LikeService) Toggle(ctx context.Context, postID int, id Identity) (*LikeStatus, error) {
	v := common.NewValidator()
	common.ValidateID(v, postID, "post_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	var status LikeStatus
	err := common.WithTx(ctx, s.m.db, func(tx *sql.Tx) error {
		removed, err := s.m.remove(ctx, tx, postID, id)
		if err != nil {
			return err
		}

		if !removed {
			if err := s.m.add(ctx, tx, postID, id); err != nil {
				return err
			}
		}
		status.Liked = !removed

		status.Count, err = s.m.count(ctx, tx, postID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int("post_id", postID).Str("identity", id.String()).Bool("liked", status.Liked).Msg("like toggled")

	return &status, nil
}
