package commentservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sushihentaime/devlog/internal/authz"
	"github.com/sushihentaime/devlog/internal/common"
)

func NewCommentService(db *sql.DB, mb common.MessageProducer, secretCost int, logger zerolog.Logger) *CommentService {
	return &CommentService{
		m:          newCommentModel(db),
		mb:         mb,
		secretCost: secretCost,
		logger:     logger.With().Str("service", "comment").Logger(),
	}
}

// CreateComment stores a comment owned by the bcrypt hash of its password and publishes a comment.created event.
// Authenticated callers are linked to the comment; the password still gates later edits.
func (s *CommentService) CreateComment(ctx context.Context, p authz.Principal, in *CreateCommentInput) (*Comment, error) {
	in.AuthorName = strings.TrimSpace(in.AuthorName)
	in.Content = strings.TrimSpace(in.Content)
	if in.AuthorName == "" && !p.IsAnonymous() {
		in.AuthorName = p.DisplayName()
	}

	v := common.NewValidator()
	common.ValidateID(v, in.PostID, "post_id")
	validateAuthorName(v, in.AuthorName)
	validateContent(v, in.Content)
	validatePassword(v, in.Password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	hash, err := authz.HashSecret(in.Password, s.secretCost)
	if err != nil {
		return nil, err
	}

	c := &Comment{
		PostID:     in.PostID,
		AuthorName: in.AuthorName,
		Content:    in.Content,
	}
	if !p.IsAnonymous() {
		c.UserID = &p.ID
	}

	title, err := s.m.insert(ctx, c, hash)
	if err != nil {
		return nil, err
	}

	s.publishCreated(ctx, c, title)

	return c, nil
}

// publishCreated emits the notification event. A broker failure does not undo the comment.
func (s *CommentService) publishCreated(ctx context.Context, c *Comment, postTitle string) {
	if s.mb == nil {
		return
	}

	msg, err := json.Marshal(CommentCreatedEvent{
		CommentID:  c.ID,
		PostID:     c.PostID,
		PostTitle:  postTitle,
		AuthorName: c.AuthorName,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
	})
	if err != nil {
		s.logger.Error().Err(err).Int("comment_id", c.ID).Msg("could not encode comment event")
		return
	}

	if err := s.mb.Publish(ctx, msg, common.CommentCreatedKey, common.CommentExchange); err != nil {
		s.logger.Error().Err(err).Int("comment_id", c.ID).Msg("could not publish comment event")
	}
}

// GetComments lists a post's comments newest first.
func (s *CommentService) GetComments(ctx context.Context, postID int) ([]Comment, error) {
	v := common.NewValidator()
	common.ValidateID(v, postID, "post_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.getCommentsByPostID(ctx, postID)
}

// verify loads the comment's hash and checks the password against it.
func (s *CommentService) verify(ctx context.Context, id int, password string) error {
	hash, err := s.m.getSecretHash(ctx, id)
	if err != nil {
		return err
	}

	if err := authz.VerifySecret(hash, password); err != nil {
		if errors.Is(err, common.ErrInvalidSecret) {
			s.logger.Info().Int("comment_id", id).Msg("comment password rejected")
		}
		return err
	}

	return nil
}

// UpdateComment replaces the content when password matches the one the comment was created with.
func (s *CommentService) UpdateComment(ctx context.Context, id int, in *UpdateCommentInput) (*Comment, error) {
	in.Content = strings.TrimSpace(in.Content)

	v := common.NewValidator()
	common.ValidateID(v, id, "id")
	validateContent(v, in.Content)
	validatePassword(v, in.Password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if err := s.verify(ctx, id, in.Password); err != nil {
		return nil, err
	}

	return s.m.update(ctx, id, in.Content)
}

// DeleteComment removes the comment when password matches.
func (s *CommentService) DeleteComment(ctx context.Context, id int, password string) error {
	v := common.NewValidator()
	common.ValidateID(v, id, "id")
	validatePassword(v, password)
	if !v.Valid() {
		return v.ValidationError()
	}

	if err := s.verify(ctx, id, password); err != nil {
		return err
	}

	return s.m.delete(ctx, id)
}
