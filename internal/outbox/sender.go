// Package outbox sends messages optimistically: a submission is shown as
// pending at once and later confirmed in place or rolled back.
package outbox

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatr/internal/gateway"
	"github.com/matheus3301/chatr/internal/metrics"
	"github.com/matheus3301/chatr/internal/notify"
	"github.com/matheus3301/chatr/internal/store"
)

// ErrNoConversation is returned when a submission names no conversation.
var ErrNoConversation = errors.New("no conversation selected")

// Gateway is the part of the backend the sender writes to.
type Gateway interface {
	SendMessage(ctx context.Context, chatID string, req gateway.SendMessageRequest) (*gateway.MessageDTO, error)
	Upload(ctx context.Context, chatID string, f gateway.FileUpload) (string, error)
}

// Submission is one message as composed by the user.
type Submission struct {
	ConversationID string
	Text           string
	GIFURL         string
	File           *gateway.FileUpload
}

// Options configures a Sender. Zero values are valid.
type Options struct {
	Banner  *notify.Banner
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Sender runs the pending -> confirmed | failed pipeline. Each pending
// record is reconciled by its own temporary id, so any number of sends may
// be in flight per conversation.
type Sender struct {
	gw      Gateway
	msgs    *store.Messages
	me      store.Identity
	banner  *notify.Banner
	metrics *metrics.Metrics
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSender creates a sender writing into msgs on behalf of me.
func NewSender(gw Gateway, msgs *store.Messages, me store.Identity, opts Options) *Sender {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Sender{
		gw:      gw,
		msgs:    msgs,
		me:      me,
		banner:  opts.Banner,
		metrics: opts.Metrics,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Submit places a pending record and delivers it in the background. It
// returns the temporary id, or false when there was nothing to send.
func (s *Sender) Submit(sub Submission) (string, bool) {
	pending, err := s.begin(sub)
	if err != nil {
		if !errors.Is(err, store.ErrEmptyContent) {
			s.banner.Report(err)
		}
		return "", false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.deliver(s.ctx, pending, sub.File)
	}()
	return pending.ID, true
}

// Send places a pending record and delivers it before returning the
// confirmed message. An empty submission yields store.ErrEmptyContent.
func (s *Sender) Send(ctx context.Context, sub Submission) (store.Message, error) {
	pending, err := s.begin(sub)
	if err != nil {
		return store.Message{}, err
	}
	return s.deliver(ctx, pending, sub.File)
}

// Wait blocks until every submitted message is confirmed or rolled back.
func (s *Sender) Wait() {
	s.wg.Wait()
}

// Stop abandons in-flight deliveries and waits for their rollback.
func (s *Sender) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Sender) begin(sub Submission) (store.Message, error) {
	var att *store.AttachmentRef
	if sub.File != nil {
		att = &store.AttachmentRef{
			FileName:    sub.File.FileName,
			ContentType: sub.File.ContentType,
			Size:        sub.File.Size,
		}
	}
	content, err := store.NewContent(sub.Text, sub.GIFURL, att)
	if err != nil {
		return store.Message{}, err
	}
	if strings.TrimSpace(sub.ConversationID) == "" {
		return store.Message{}, notify.Wrap(notify.Validation, "send message", ErrNoConversation)
	}

	pending := store.Message{
		ID:             store.NewTempID(),
		ConversationID: sub.ConversationID,
		SenderID:       s.me.UserID,
		SenderName:     s.me.DisplayName,
		Content:        content,
		CreatedAt:      time.Now(),
		IsMine:         true,
		Status:         store.StatusPending,
	}
	s.msgs.Append(pending)
	s.metrics.SendStarted()
	s.logger.Debug("message pending",
		zap.String("conversation_id", pending.ConversationID),
		zap.String("temp_id", pending.ID),
	)
	return pending, nil
}

func (s *Sender) deliver(ctx context.Context, pending store.Message, file *gateway.FileUpload) (store.Message, error) {
	convID := pending.ConversationID
	req := gateway.SendMessageRequest{
		Text:   pending.Content.Text(),
		GifURL: pending.Content.GIFURL(),
	}

	if file != nil {
		id, err := s.gw.Upload(ctx, convID, *file)
		s.metrics.UploadFinished(err == nil)
		if err != nil {
			return store.Message{}, s.fail(pending, "upload attachment", err)
		}
		req.AttachmentID = id
		pending.Content = pending.Content.WithAttachmentID(id)
	}

	dto, err := s.gw.SendMessage(ctx, convID, req)
	if err != nil {
		return store.Message{}, s.fail(pending, "send message", err)
	}

	confirmed := store.MessageFromWire(convID, *dto, s.me)
	if confirmed.ID == "" {
		return store.Message{}, s.fail(pending, "send message", errors.New("response has no message id"))
	}
	if confirmed.Content.IsEmpty() {
		confirmed.Content = pending.Content
	}
	if confirmed.CreatedAt.IsZero() {
		confirmed.CreatedAt = pending.CreatedAt
	}
	if confirmed.SenderName == "" {
		confirmed.SenderName = pending.SenderName
	}
	confirmed.IsMine = true

	s.msgs.ReplaceByID(convID, pending.ID, confirmed)
	s.metrics.SendFinished(true)
	s.logger.Info("message sent",
		zap.String("conversation_id", convID),
		zap.String("temp_id", pending.ID),
		zap.String("message_id", confirmed.ID),
	)
	return confirmed, nil
}

// fail rolls the pending record back and reports the failure.
func (s *Sender) fail(pending store.Message, op string, cause error) error {
	s.msgs.RemoveByID(pending.ConversationID, pending.ID)
	s.metrics.SendFinished(false)
	err := notify.Wrap(notify.SendFailure, op, cause)
	s.banner.Report(err)
	s.logger.Warn("message send failed",
		zap.String("conversation_id", pending.ConversationID),
		zap.String("temp_id", pending.ID),
		zap.Error(err),
	)
	return err
}
