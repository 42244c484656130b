package mailservice

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/sushihentaime/devlog/internal/common"
	"golang.org/x/exp/rand"
)

// NewMailService notifies recipient about new comments consumed from mb.
func NewMailService(mb common.MessageConsumer, cfg Config, recipient string, logger zerolog.Logger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:         mb,
		m:          NewMailer(cfg, NewTemplate()),
		recipient:  recipient,
		logger:     logger.With().Str("service", "mail").Logger(),
		ctx:        ctx,
		cancel:     cancel,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
	}
}

// SendCommentNotifications starts a consumer that emails the admin for every comment.created event.
func (s *MailService) SendCommentNotifications() error {
	msgs, err := s.mb.Consume(common.CommentCreatedKey, common.CommentExchange, common.CommentCreatedQueue)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var event commentCreated
				if err := json.Unmarshal(msg.Body, &event); err != nil {
					s.logger.Error().Err(err).Msg("could not unmarshal comment event")
					_ = msg.Ack(false)
					continue
				}

				s.notify(&event)
				_ = msg.Ack(false)

			case <-s.ctx.Done():
				s.logger.Info().Msg("stopping comment notifications")
				return
			}
		}
	}()

	return nil
}

// notify sends the email with exponential backoff and jitter. A message that keeps failing is dropped.
func (s *MailService) notify(event *commentCreated) {
	if s.recipient == "" {
		s.logger.Warn().Int("comment_id", event.CommentID).Msg("no admin email configured, notification skipped")
		return
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.m.send(s.recipient, event, CommentNotificationTemplate)
		if err == nil {
			s.logger.Info().Int("comment_id", event.CommentID).Int("post_id", event.PostID).Msg("comment notification sent")
			return
		}

		var delay time.Duration
		if s.baseDelay > 0 {
			delay = time.Duration(rand.Int63n(int64(s.baseDelay) << uint(attempt)))
		}
		s.logger.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("delaying comment notification")

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return
		}
	}

	s.logger.Error().Int("comment_id", event.CommentID).Msg("could not send comment notification")
}

// Close stops the consumer and waits for the in-flight message.
func (s *MailService) Close() {
	s.cancel()
	s.wg.Wait()
}
