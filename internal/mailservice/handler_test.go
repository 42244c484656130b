package mailservice

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/devlog/internal/common"
)

func newTestMailService(mc common.MessageConsumer, mailer Mailer, recipient string) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:         mc,
		m:          mailer,
		recipient:  recipient,
		logger:     zerolog.Nop(),
		ctx:        ctx,
		cancel:     cancel,
		maxRetries: 3,
	}
}

func commentEvent(t *testing.T, id int) []byte {
	b, err := json.Marshal(commentCreated{CommentID: id, PostID: 1, PostTitle: "Hello", AuthorName: "guest", Content: "nice"})
	require.NoError(t, err)
	return b
}

func TestSendCommentNotifications(t *testing.T) {
	t.Run("mails the admin for each event", func(t *testing.T) {
		mc := &MockMessageConsumer{Bodies: [][]byte{commentEvent(t, 1), []byte("not json"), commentEvent(t, 2)}}
		mc.On("Consume", common.CommentCreatedKey, common.CommentExchange, common.CommentCreatedQueue).Return(nil)

		mailer := new(MockMailer)
		mailer.On("send", "admin@example.com", mock.AnythingOfType("*mailservice.commentCreated"), CommentNotificationTemplate).Return(nil)

		s := newTestMailService(mc, mailer, "admin@example.com")
		require.NoError(t, s.SendCommentNotifications())
		s.wg.Wait()

		mc.AssertExpectations(t)
		mailer.AssertNumberOfCalls(t, "send", 2)
		s.Close()
	})

	t.Run("retries failed sends", func(t *testing.T) {
		mc := &MockMessageConsumer{Bodies: [][]byte{commentEvent(t, 1)}}
		mc.On("Consume", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		mailer := new(MockMailer)
		mailer.On("send", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError).Twice()
		mailer.On("send", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		s := newTestMailService(mc, mailer, "admin@example.com")
		require.NoError(t, s.SendCommentNotifications())
		s.wg.Wait()

		mailer.AssertNumberOfCalls(t, "send", 3)
		s.Close()
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		mc := &MockMessageConsumer{Bodies: [][]byte{commentEvent(t, 1)}}
		mc.On("Consume", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		mailer := new(MockMailer)
		mailer.On("send", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

		s := newTestMailService(mc, mailer, "admin@example.com")
		require.NoError(t, s.SendCommentNotifications())
		s.wg.Wait()

		mailer.AssertNumberOfCalls(t, "send", 3)
		s.Close()
	})

	t.Run("no recipient configured", func(t *testing.T) {
		mc := &MockMessageConsumer{Bodies: [][]byte{commentEvent(t, 1)}}
		mc.On("Consume", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		mailer := new(MockMailer)

		s := newTestMailService(mc, mailer, "")
		require.NoError(t, s.SendCommentNotifications())
		s.wg.Wait()

		mailer.AssertNotCalled(t, "send", mock.Anything, mock.Anything, mock.Anything)
		s.Close()
	})

	t.Run("consume error", func(t *testing.T) {
		mc := new(MockMessageConsumer)
		mc.On("Consume", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

		s := newTestMailService(mc, new(MockMailer), "admin@example.com")
		assert.ErrorIs(t, s.SendCommentNotifications(), assert.AnError)
		s.Close()
	})
}

func TestCommentNotificationsWithBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping broker test in short mode")
	}

	mb, err := common.NewMessageBroker(common.TestRabbitMQ(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mb.Close() })
	require.NoError(t, common.SetupCommentExchange(mb))

	sent := make(chan string, 1)
	mailer := new(MockMailer)
	mailer.On("send", "admin@example.com", mock.Anything, CommentNotificationTemplate).Return(nil).Run(func(args mock.Arguments) {
		sent <- args.String(0)
	})

	s := newTestMailService(mb, mailer, "admin@example.com")
	require.NoError(t, s.SendCommentNotifications())
	t.Cleanup(s.Close)

	require.NoError(t, mb.Publish(context.Background(), commentEvent(t, 1), common.CommentCreatedKey, common.CommentExchange))

	select {
	case recipient := <-sent:
		assert.Equal(t, "admin@example.com", recipient)
	case <-time.After(10 * time.Second):
		t.Fatal("notification was not sent")
	}
}
