package notify

import (
	"sync"
	"time"

	"github.com/matheus3301/chatr/internal/bus"
)

// Entry is the banner content.
type Entry struct {
	Kind    Kind
	Message string
	At      time.Time
}

// Banner holds at most one current error. Reporting replaces it; Dismiss
// clears it. A nil *Banner ignores everything.
//
// Fatal errors are not shown: they publish bus.SessionFatal so the host can
// end the session.
type Banner struct {
	mu      sync.RWMutex
	current *Entry
	bus     *bus.Bus
}

// NewBanner creates an empty banner publishing on b.
func NewBanner(b *bus.Bus) *Banner {
	return &Banner{bus: b}
}

// Report routes err by kind. Background errors and cancellations are
// ignored; callers log them.
func (b *Banner) Report(err error) {
	if b == nil || err == nil || IsCanceled(err) {
		return
	}
	kind := KindOf(err)
	switch kind {
	case Background:
		return
	case Fatal:
		b.bus.Emit(bus.SessionFatal, err)
		return
	}
	e := Entry{Kind: kind, Message: err.Error(), At: time.Now()}
	b.mu.Lock()
	b.current = &e
	b.mu.Unlock()
	b.bus.Emit(bus.SessionError, e)
}

// Current returns the banner entry, if any.
func (b *Banner) Current() (Entry, bool) {
	if b == nil {
		return Entry{}, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.current == nil {
		return Entry{}, false
	}
	return *b.current, true
}

// Dismiss clears the banner.
func (b *Banner) Dismiss() {
	if b == nil {
		return
	}
	b.mu.Lock()
	had := b.current != nil
	b.current = nil
	b.mu.Unlock()
	if had {
		b.bus.Emit(bus.SessionBannerCleared, nil)
	}
}
