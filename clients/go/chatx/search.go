package chatx

import (
	"context"
	"sync"
	"time"
)

const (
	// DebounceDelay is the quiet period after the last keystroke before a
	// search fires.
	DebounceDelay = 180 * time.Millisecond
	// RefreshInterval is the period of the background presence refresh.
	RefreshInterval = 8 * time.Second
)

// debouncer schedules a single deferred run. Scheduling again before the
// delay elapses cancels the previous run, so at most one task is ever
// pending and the last caller wins.
type debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

func (d *debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// SearchCoordinator debounces local search input, broadcasts queries to the
// other members, and mirrors their queries back into the local view — a
// shared-cursor search where anyone's typing moves everyone's member list.
type SearchCoordinator struct {
	session   *Session
	directory *PresenceDirectory
	view      View

	debounce debouncer
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once

	mu    sync.Mutex
	query string
}

// NewSearchCoordinator wires a coordinator to a session and its directory.
func NewSearchCoordinator(session *Session, directory *PresenceDirectory, view View) *SearchCoordinator {
	return &SearchCoordinator{
		session:   session,
		directory: directory,
		view:      view,
		debounce:  debouncer{delay: DebounceDelay},
		interval:  RefreshInterval,
		stop:      make(chan struct{}),
	}
}

// Query returns the current filter value.
func (s *SearchCoordinator) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *SearchCoordinator) setQuery(q string) {
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
}

// InputChanged records a local keystroke. Each call cancels any pending
// broadcast and schedules a fresh one; a burst of keystrokes collapses to a
// single search fired after the quiet period.
func (s *SearchCoordinator) InputChanged(query string) {
	s.setQuery(query)
	s.debounce.Schedule(func() { s.fire(query) })
}

// fire broadcasts the query and refreshes the filtered presence view. The
// broadcast is best-effort: with no open connection the envelope is simply
// dropped and only the local refresh happens.
func (s *SearchCoordinator) fire(query string) {
	if conn := s.session.Connection(); conn != nil {
		if err := conn.Send(SearchEnvelope(s.session.Identity, query)); err != nil {
			s.session.Logger.Debug().Err(err).Msg("search broadcast dropped")
		}
	}
	s.directory.Refresh(context.Background(), query)
}

// HandleRemote applies a search broadcast received from the backend. A
// self-originated echo is never reapplied, which is what keeps the
// broadcast/mirror cycle from feeding back on itself.
func (s *SearchCoordinator) HandleRemote(ev SearchEvent) {
	if ev.FromEmail == s.session.Identity.Email {
		return
	}
	s.setQuery(ev.Query)
	s.view.SetSearchQuery(ev.Query)
	s.directory.Refresh(context.Background(), ev.Query)
}

// Run drives the periodic presence refresh until Stop is called. A tick is
// skipped outright while the search field has focus, so the background
// refresh never clobbers in-progress typing; this is a cooperative rule, not
// a lock — the debounced refresh still lands whenever it fires.
func (s *SearchCoordinator) Run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.view.SearchFocused() {
				continue
			}
			s.directory.Refresh(context.Background(), s.Query())
		case <-s.stop:
			return
		}
	}
}

// Stop halts the periodic refresh and cancels any pending debounced search.
func (s *SearchCoordinator) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.debounce.Stop()
}
