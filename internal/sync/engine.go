package sync

import (
	"context"
	gosync "sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/matheus3301/chatr/internal/bus"
	"github.com/matheus3301/chatr/internal/gateway"
	"github.com/matheus3301/chatr/internal/metrics"
	"github.com/matheus3301/chatr/internal/notify"
	"github.com/matheus3301/chatr/internal/status"
	"github.com/matheus3301/chatr/internal/store"
)

// DefaultPageSize is the number of messages fetched per conversation load.
const DefaultPageSize = 50

const listKey = "conversations"

// Gateway is the part of the backend the engine reads from.
type Gateway interface {
	ListChats(ctx context.Context) ([]gateway.ChatDTO, error)
	ListMessages(ctx context.Context, chatID string, skip, take int) ([]gateway.MessageDTO, error)
	MarkRead(ctx context.Context, chatID string) error
}

// Options configures an Engine. Zero values are valid.
type Options struct {
	PageSize int
	Bus      *bus.Bus
	Banner   *notify.Banner
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// loadTag identifies one message load: the conversation it was issued for
// and a sequence number unique per issue.
type loadTag struct {
	convID string
	seq    uint64
}

// Engine keeps the conversation and message stores in step with the
// backend. It runs the conversation-list cycle, the per-selection message
// cycle and read acknowledgements.
type Engine struct {
	gw       Gateway
	convs    *store.Conversations
	msgs     *store.Messages
	me       store.Identity
	pageSize int

	banner  *notify.Banner
	metrics *metrics.Metrics
	logger  *zap.Logger

	listFlight singleflight.Group
	listState  *status.Machine
	msgState   *status.Machine

	// mu serializes selection changes with tag checks, so a response is
	// compared against the current tag and applied in one step.
	mu         gosync.Mutex
	seq        uint64
	current    loadTag
	cancelLoad context.CancelFunc
	// listIssued numbers list requests; listApplied is the newest one whose
	// result reached the store. Older results are dropped.
	listIssued  uint64
	listApplied uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     gosync.WaitGroup
}

// NewEngine creates an engine over the given stores.
func NewEngine(gw Gateway, convs *store.Conversations, msgs *store.Messages, me store.Identity, opts Options) *Engine {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		gw:        gw,
		convs:     convs,
		msgs:      msgs,
		me:        me,
		pageSize:  opts.PageSize,
		banner:    opts.Banner,
		metrics:   opts.Metrics,
		logger:    orNop(opts.Logger),
		listState: status.NewMachine(status.Conversations, opts.Bus),
		msgState:  status.NewMachine(status.Messages, opts.Bus),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start triggers the initial conversation-list load.
func (e *Engine) Start() {
	e.RefreshAsync()
}

// Stop cancels in-flight work and waits for it to finish. Nothing new is
// started once Stop has begun.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.cancel()
	e.mu.Unlock()
	e.wg.Wait()
}

// goLocked runs fn on a tracked goroutine unless the engine is stopping.
// e.mu must be held.
func (e *Engine) goLocked(fn func()) bool {
	if e.ctx.Err() != nil {
		return false
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fn()
	}()
	return true
}

// Wait blocks until every goroutine started by the engine has returned.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// ListState returns the conversation-list cycle state.
func (e *Engine) ListState() status.State { return e.listState.Current() }

// MessageState returns the message cycle state.
func (e *Engine) MessageState() status.State { return e.msgState.Current() }

// MessageErr returns the error of the last failed message load, if the
// message cycle is Errored.
func (e *Engine) MessageErr() error { return e.msgState.Err() }

// ListErr returns the error of the last failed list load, if the list cycle
// is Errored.
func (e *Engine) ListErr() error { return e.listState.Err() }

// RefreshAsync runs RefreshConversations in the background.
func (e *Engine) RefreshAsync() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.goLocked(func() { _ = e.RefreshConversations(e.ctx) })
}

// RefreshConversations reloads the conversation list. Concurrent calls share
// one backend request and its result. Failures are reported on the banner
// and returned.
func (e *Engine) RefreshConversations(ctx context.Context) error {
	_, err, _ := e.listFlight.Do(listKey, func() (any, error) {
		return nil, e.refresh(ctx)
	})
	return err
}

// ReloadConversations reloads the conversation list with a request issued
// now, never joining one already in flight. Callers use it after a change
// on the backend the older request cannot reflect.
func (e *Engine) ReloadConversations(ctx context.Context) error {
	e.listFlight.Forget(listKey)
	return e.RefreshConversations(ctx)
}

func (e *Engine) refresh(ctx context.Context) error {
	e.mu.Lock()
	e.listIssued++
	gen := e.listIssued
	e.mu.Unlock()
	e.setState(e.listState, status.Loading, nil)

	dtos, err := e.gw.ListChats(ctx)
	if err != nil {
		if e.listSuperseded(gen) {
			return nil
		}
		err = notify.Wrap(notify.Transient, "load conversations", err)
		e.setState(e.listState, status.Errored, err)
		e.metrics.ListRefreshed(false)
		e.banner.Report(err)
		e.logger.Warn("conversation list load failed", zap.Error(err))
		return err
	}

	list := store.ConversationsFromWire(dtos)

	e.mu.Lock()
	if gen < e.listApplied {
		e.mu.Unlock()
		e.metrics.StaleDiscarded("conversations")
		e.logger.Debug("stale conversation list discarded", zap.Uint64("gen", gen))
		return nil
	}
	e.listApplied = gen
	selected := e.convs.Selected()
	reack := false
	for i := range list {
		// The open conversation stays read locally; a server count above
		// zero means an earlier acknowledgement was lost.
		if list[i].ID == selected && list[i].Unread > 0 {
			list[i].Unread = 0
			reack = true
		}
	}
	e.convs.Load(list)
	e.mu.Unlock()

	e.setState(e.listState, status.Ready, nil)
	e.metrics.ListRefreshed(true)
	e.logger.Debug("conversation list loaded", zap.Int("count", len(list)))
	if reack {
		e.ackRead(selected)
	}
	return nil
}

// Select makes id the current conversation. Its unread counter is zeroed
// before any request is made, then its messages are loaded and, on success,
// acknowledged as read. Re-selecting the current conversation does nothing.
func (e *Engine) Select(id string) error {
	e.mu.Lock()
	changed, err := e.convs.Select(id)
	if err != nil || !changed {
		e.mu.Unlock()
		return err
	}
	e.issueLoadLocked(id)
	e.mu.Unlock()
	return nil
}

// Reload re-issues the message load for the current conversation.
func (e *Engine) Reload() {
	e.mu.Lock()
	id := e.current.convID
	if id != "" {
		e.issueLoadLocked(id)
	}
	e.mu.Unlock()
}

// issueLoadLocked supersedes the running load, if any, with a new tagged load
// for id. e.mu must be held.
func (e *Engine) issueLoadLocked(id string) {
	if e.ctx.Err() != nil {
		return
	}
	e.seq++
	tag := loadTag{convID: id, seq: e.seq}
	if e.cancelLoad != nil {
		e.cancelLoad()
	}
	ctx, cancel := context.WithCancel(e.ctx)
	e.current = tag
	e.cancelLoad = cancel
	e.setState(e.msgState, status.Loading, nil)

	e.logger.Debug("loading messages", zap.String("conversation_id", id), zap.Uint64("seq", tag.seq))
	e.goLocked(func() {
		defer cancel()
		e.loadMessages(ctx, tag)
	})
}

func (e *Engine) loadMessages(ctx context.Context, tag loadTag) {
	dtos, err := e.gw.ListMessages(ctx, tag.convID, 0, e.pageSize)

	e.mu.Lock()
	if e.current != tag {
		e.mu.Unlock()
		e.metrics.StaleDiscarded("messages")
		e.logger.Debug("discarded stale message load",
			zap.String("conversation_id", tag.convID),
			zap.Uint64("seq", tag.seq),
		)
		return
	}
	if err != nil {
		err = notify.Wrap(notify.Transient, "load messages", err)
		e.setState(e.msgState, status.Errored, err)
		e.mu.Unlock()
		e.banner.Report(err)
		e.logger.Warn("message load failed", zap.String("conversation_id", tag.convID), zap.Error(err))
		return
	}
	e.msgs.Replace(tag.convID, store.MessagesFromWire(tag.convID, dtos, e.me))
	e.setState(e.msgState, status.Ready, nil)
	e.mu.Unlock()

	e.ackRead(tag.convID)
}

// ackRead acknowledges a conversation in the background. Failures are
// logged and counted only; the local unread zero stays.
func (e *Engine) ackRead(convID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.goLocked(func() {
		if err := e.gw.MarkRead(e.ctx, convID); err != nil {
			if notify.IsCanceled(err) {
				return
			}
			e.metrics.ReadAckFailed()
			e.logger.Warn("read acknowledgement failed",
				zap.String("conversation_id", convID),
				zap.Error(notify.Wrap(notify.Background, "mark read", err)),
			)
		}
	})
}

func (e *Engine) setState(m *status.Machine, to status.State, cause error) {
	var err error
	if to == status.Errored {
		err = m.Fail(cause)
	} else {
		err = m.Transition(to)
	}
	if err != nil {
		e.logger.Debug("state transition rejected", zap.Error(err))
	}
}

// listSuperseded reports whether a newer list result already reached the
// store, so the outcome of request gen no longer matters.
func (e *Engine) listSuperseded(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen < e.listApplied
}

func orNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
