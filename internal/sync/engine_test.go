package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"testing"
	"time"

	"github.com/matheus3301/chatr/internal/bus"
	"github.com/matheus3301/chatr/internal/gateway"
	"github.com/matheus3301/chatr/internal/notify"
	"github.com/matheus3301/chatr/internal/status"
	"github.com/matheus3301/chatr/internal/store"
)

// fakeGateway serves canned data. Requests for a chat with a gate block until
// the gate is closed; gated responses ignore cancellation so that a late
// response can arrive after its selection was superseded.
type fakeGateway struct {
	mu        gosync.Mutex
	chats     []gateway.ChatDTO
	chatsErr  error
	listCalls int
	listGate  chan struct{}
	listStart chan struct{}
	messages  map[string][]gateway.MessageDTO
	gates     map[string]chan struct{}
	msgCalls  []string
	readErr   error
	reads     []string
}

func newFakeGateway(chats ...gateway.ChatDTO) *fakeGateway {
	return &fakeGateway{
		chats:    chats,
		messages: make(map[string][]gateway.MessageDTO),
		gates:    make(map[string]chan struct{}),
	}
}

func (f *fakeGateway) ListChats(ctx context.Context) ([]gateway.ChatDTO, error) {
	// The reply reflects the backend when the request arrives; only the
	// first request after a gate is installed waits on it.
	f.mu.Lock()
	f.listCalls++
	gate, started := f.listGate, f.listStart
	f.listGate = nil
	out := make([]gateway.ChatDTO, len(f.chats))
	copy(out, f.chats)
	err := f.chatsErr
	f.mu.Unlock()
	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeGateway) ListMessages(ctx context.Context, chatID string, skip, take int) ([]gateway.MessageDTO, error) {
	f.mu.Lock()
	f.msgCalls = append(f.msgCalls, chatID)
	gate := f.gates[chatID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[chatID], nil
}

func (f *fakeGateway) MarkRead(ctx context.Context, chatID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, chatID)
	return f.readErr
}

func (f *fakeGateway) gate(chatID string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[chatID] = ch
	return ch
}

func (f *fakeGateway) readCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reads...)
}

func (f *fakeGateway) messageCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.msgCalls...)
}

type harness struct {
	gw     *fakeGateway
	convs  *store.Conversations
	msgs   *store.Messages
	bus    *bus.Bus
	banner *notify.Banner
	engine *Engine
}

func newHarness(t *testing.T, gw *fakeGateway) *harness {
	t.Helper()
	b := bus.New()
	h := &harness{
		gw:     gw,
		convs:  store.NewConversations(b),
		msgs:   store.NewMessages(b),
		bus:    b,
		banner: notify.NewBanner(b),
	}
	h.engine = NewEngine(gw, h.convs, h.msgs, store.Identity{UserID: "me"}, Options{
		Bus:    b,
		Banner: h.banner,
	})
	t.Cleanup(h.engine.Stop)
	if err := h.engine.RefreshConversations(context.Background()); err != nil && gw.chatsErr == nil {
		t.Fatal(err)
	}
	return h
}

func messageIDs(msgs []store.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestSelectZeroesUnreadBeforeNetwork(t *testing.T) {
	gw := newFakeGateway(
		gateway.ChatDTO{ChatID: "c1", Name: "Team", UnreadCount: 3},
		gateway.ChatDTO{ChatID: "c2", Name: "Bob"},
	)
	gw.messages["c1"] = []gateway.MessageDTO{{ID: "m1", SenderID: "u2", Text: "hi"}}
	h := newHarness(t, gw)
	release := gw.gate("c1")

	if err := h.engine.Select("c1"); err != nil {
		t.Fatal(err)
	}
	c, _ := h.convs.Get("c1")
	if c.Unread != 0 {
		t.Fatalf("unread = %d before load completed, want 0", c.Unread)
	}
	if len(gw.readCalls()) != 0 {
		t.Fatal("read acknowledged before messages loaded")
	}

	close(release)
	h.engine.Wait()

	if got := messageIDs(h.msgs.List("c1")); len(got) != 1 || got[0] != "m1" {
		t.Errorf("messages = %v, want [m1]", got)
	}
	if got := gw.readCalls(); len(got) != 1 || got[0] != "c1" {
		t.Errorf("reads = %v, want [c1]", got)
	}
	if h.engine.MessageState() != status.Ready {
		t.Errorf("message state = %s, want READY", h.engine.MessageState())
	}
}

func TestStaleMessageLoadDiscarded(t *testing.T) {
	gw := newFakeGateway(gateway.ChatDTO{ChatID: "A"}, gateway.ChatDTO{ChatID: "B"})
	gw.messages["A"] = []gateway.MessageDTO{{ID: "a1", Text: "from A"}}
	gw.messages["B"] = []gateway.MessageDTO{{ID: "b1", Text: "from B"}}
	h := newHarness(t, gw)
	releaseA := gw.gate("A")
	releaseB := gw.gate("B")

	if err := h.engine.Select("A"); err != nil {
		t.Fatal(err)
	}
	if err := h.engine.Select("B"); err != nil {
		t.Fatal(err)
	}

	// B answers first, A's late response arrives after.
	close(releaseB)
	time.Sleep(50 * time.Millisecond)
	close(releaseA)
	h.engine.Wait()

	if h.convs.Selected() != "B" {
		t.Fatalf("selected = %q, want B", h.convs.Selected())
	}
	if got := messageIDs(h.msgs.List("B")); len(got) != 1 || got[0] != "b1" {
		t.Errorf("B messages = %v", got)
	}
	if got := h.msgs.List("A"); len(got) != 0 {
		t.Errorf("stale A response applied: %v", messageIDs(got))
	}
	if got := gw.readCalls(); len(got) != 1 || got[0] != "B" {
		t.Errorf("reads = %v, want [B]", got)
	}
	if _, ok := h.banner.Current(); ok {
		t.Error("stale response surfaced as an error")
	}
}

func TestReselectIssuesNoCalls(t *testing.T) {
	gw := newFakeGateway(gateway.ChatDTO{ChatID: "c1"})
	h := newHarness(t, gw)

	if err := h.engine.Select("c1"); err != nil {
		t.Fatal(err)
	}
	h.engine.Wait()
	if err := h.engine.Select("c1"); err != nil {
		t.Fatal(err)
	}
	h.engine.Wait()

	if got := gw.messageCalls(); len(got) != 1 {
		t.Errorf("message loads = %v, want one", got)
	}
	if got := gw.readCalls(); len(got) != 1 {
		t.Errorf("reads = %v, want one", got)
	}
}

func TestSelectUnknownConversation(t *testing.T) {
	gw := newFakeGateway(gateway.ChatDTO{ChatID: "c1"})
	h := newHarness(t, gw)

	err := h.engine.Select("nope")
	if !errors.Is(err, store.ErrUnknownConversation) {
		t.Errorf("err = %v", err)
	}
	if len(gw.messageCalls()) != 0 {
		t.Error("unknown id triggered a load")
	}
}

func TestReadAckFailureKeepsUnreadZero(t *testing.T) {
	gw := newFakeGateway(gateway.ChatDTO{ChatID: "c1", UnreadCount: 2})
	gw.readErr = errors.New("status 500")
	h := newHarness(t, gw)

	if err := h.engine.Select("c1"); err != nil {
		t.Fatal(err)
	}
	h.engine.Wait()

	c, _ := h.convs.Get("c1")
	if c.Unread != 0 {
		t.Errorf("unread = %d after failed ack, want 0", c.Unread)
	}
	if _, ok := h.banner.Current(); ok {
		t.Error("read-ack failure surfaced on the banner")
	}

	// The server still counts c1 as unread: a refresh keeps the local zero
	// and acknowledges again.
	if err := h.engine.RefreshConversations(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.engine.Wait()
	c, _ = h.convs.Get("c1")
	if c.Unread != 0 {
		t.Errorf("unread = %d after refresh, want 0", c.Unread)
	}
	if got := gw.readCalls(); len(got) != 2 {
		t.Errorf("reads = %v, want two attempts", got)
	}
}

func TestRefreshKeepsOtherUnreadCounts(t *testing.T) {
	gw := newFakeGateway(gateway.ChatDTO{ChatID: "c1"}, gateway.ChatDTO{ChatID: "c2", UnreadCount: 4})
	h := newHarness(t, gw)
	if err := h.engine.Select("c1"); err != nil {
		t.Fatal(err)
	}
	h.engine.Wait()

	c, _ := h.convs.Get("c2")
	if c.Unread != 4 {
		t.Errorf("c2 unread = %d, want 4", c.Unread)
	}
}

func TestConcurrentRefreshesCollapse(t *testing.T) {
	gw := newFakeGateway(gateway.ChatDTO{ChatID: "c1"})
	h := newHarness(t, gw)

	gw.mu.Lock()
	gw.listCalls = 0
	gw.listGate = make(chan struct{})
	gw.listStart = make(chan struct{}, 1)
	gate, started := gw.listGate, gw.listStart
	gw.mu.Unlock()

	var wg gosync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- h.engine.RefreshConversations(context.Background())
		}()
	}
	<-started
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
	gw.mu.Lock()
	calls := gw.listCalls
	gw.mu.Unlock()
	if calls != 1 {
		t.Errorf("list calls = %d, want 1", calls)
	}
}

func TestListFailureIsRecoverable(t *testing.T) {
	gw := newFakeGateway(gateway.ChatDTO{ChatID: "c1"})
	gw.chatsErr = errors.New("connection refused")
	h := newHarness(t, gw)

	if h.engine.ListState() != status.Errored {
		t.Errorf("list state = %s, want ERRORED", h.engine.ListState())
	}
	e, ok := h.banner.Current()
	if !ok || e.Kind != notify.Transient {
		t.Fatalf("banner = %+v, %v", e, ok)
	}

	gw.mu.Lock()
	gw.chatsErr = nil
	gw.mu.Unlock()
	if err := h.engine.RefreshConversations(context.Background()); err != nil {
		t.Fatal(err)
	}
	if h.engine.ListState() != status.Ready {
		t.Errorf("list state = %s, want READY", h.engine.ListState())
	}
	if len(h.convs.List()) != 1 {
		t.Error("list not loaded after retry")
	}
}

func TestUnauthorizedListIsFatal(t *testing.T) {
	gw := newFakeGateway()
	gw.chatsErr = fmt.Errorf("GET /Chats: %w", gateway.ErrUnauthorized)
	b := bus.New()
	ch, unsub := b.Subscribe(bus.SessionFatal, 1)
	defer unsub()

	e := NewEngine(gw, store.NewConversations(b), store.NewMessages(b), store.Identity{}, Options{
		Bus:    b,
		Banner: notify.NewBanner(b),
	})
	defer e.Stop()
	err := e.RefreshConversations(context.Background())
	if notify.KindOf(err) != notify.Fatal {
		t.Errorf("kind = %v, want fatal", notify.KindOf(err))
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no session.fatal event")
	}
}

func TestReloadKeepsPendingAtTail(t *testing.T) {
	gw := newFakeGateway(gateway.ChatDTO{ChatID: "c1"})
	gw.messages["c1"] = []gateway.MessageDTO{{ID: "m1", Text: "one"}}
	h := newHarness(t, gw)
	if err := h.engine.Select("c1"); err != nil {
		t.Fatal(err)
	}
	h.engine.Wait()

	content, _ := store.NewContent("draft", "", nil)
	h.msgs.Append(store.Message{ID: "tmp-x", ConversationID: "c1", Content: content, Status: store.StatusPending})

	gw.mu.Lock()
	gw.messages["c1"] = append(gw.messages["c1"], gateway.MessageDTO{ID: "m2", Text: "two"})
	gw.mu.Unlock()
	h.engine.Reload()
	h.engine.Wait()

	got := messageIDs(h.msgs.List("c1"))
	want := []string{"m1", "m2", "tmp-x"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("messages = %v, want %v", got, want)
	}
}

func TestIsMineFromIdentity(t *testing.T) {
	gw := newFakeGateway(gateway.ChatDTO{ChatID: "c1"})
	gw.messages["c1"] = []gateway.MessageDTO{
		{ID: "m1", SenderID: "me", Text: "mine"},
		{ID: "m2", SenderID: "u2", Text: "theirs"},
	}
	h := newHarness(t, gw)
	if err := h.engine.Select("c1"); err != nil {
		t.Fatal(err)
	}
	h.engine.Wait()

	msgs := h.msgs.List("c1")
	if len(msgs) != 2 || !msgs[0].IsMine || msgs[1].IsMine {
		t.Errorf("IsMine flags wrong: %+v", msgs)
	}
}

func TestReloadDoesNotJoinOlderRequest(t *testing.T) {
	gw := newFakeGateway(gateway.ChatDTO{ChatID: "c1"})
	h := newHarness(t, gw)

	gw.mu.Lock()
	gw.listCalls = 0
	gw.listGate = make(chan struct{})
	gw.listStart = make(chan struct{}, 1)
	gate, started := gw.listGate, gw.listStart
	gw.mu.Unlock()

	older := make(chan error, 1)
	go func() { older <- h.engine.RefreshConversations(context.Background()) }()
	<-started

	// The backend gains a conversation after the older request was sent.
	gw.mu.Lock()
	gw.chats = append(gw.chats, gateway.ChatDTO{ChatID: "g9", Name: "Team", IsGroup: true})
	gw.mu.Unlock()

	if err := h.engine.ReloadConversations(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := h.engine.Select("g9"); err != nil {
		t.Fatalf("select new conversation: %v", err)
	}

	close(gate)
	if err := <-older; err != nil {
		t.Fatal(err)
	}
	h.engine.Wait()

	if _, ok := h.convs.Get("g9"); !ok {
		t.Error("older list overwrote the reloaded one")
	}
	if h.convs.Selected() != "g9" {
		t.Errorf("selected = %q, want g9", h.convs.Selected())
	}
	gw.mu.Lock()
	defer gw.mu.Unlock()
	if gw.listCalls != 2 {
		t.Errorf("list calls = %d, want 2", gw.listCalls)
	}
}

func TestNothingStartsAfterStop(t *testing.T) {
	gw := newFakeGateway(gateway.ChatDTO{ChatID: "c1"}, gateway.ChatDTO{ChatID: "c2"})
	h := newHarness(t, gw)
	h.engine.Stop()

	h.engine.RefreshAsync()
	if err := h.engine.Select("c2"); err != nil {
		t.Fatal(err)
	}
	h.engine.Wait()

	if got := gw.messageCalls(); len(got) != 0 {
		t.Errorf("message loads after Stop = %v", got)
	}
	gw.mu.Lock()
	defer gw.mu.Unlock()
	if gw.listCalls != 1 {
		t.Errorf("list calls = %d, want only the initial load", gw.listCalls)
	}
}
