package listing

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"blogfront/internal/model"
)

var (
	ErrBusy   = errors.New("listing: load more already in progress")
	ErrClosed = errors.New("listing: machine closed")
)

// DefaultDelay is the pause before a "view more" extends the window.
const DefaultDelay = 100 * time.Millisecond

// URLWriter receives the query of every user-originated transition.
type URLWriter func(url.Values)

type Options struct {
	Mode     Mode
	PageSize int
	// Initial restores filter, window and page from URL values on mount.
	Initial url.Values
	// Delay before LoadMore extends the window. Zero means no wait.
	Delay     time.Duration
	URLWriter URLWriter
}

// Machine owns one listing's state and article set. Transitions are
// serialised; LoadMore is not reentrant and nothing changes after Close.
type Machine struct {
	mu       sync.Mutex
	state    State
	articles []model.ListItem
	delay    time.Duration
	writeURL URLWriter

	loadSeq uint64
	closed  bool
	done    chan struct{}
}

func NewMachine(articles []model.ListItem, opts Options) *Machine {
	return &Machine{
		state:    FromQuery(opts.Initial, opts.Mode, opts.PageSize),
		articles: articles,
		delay:    opts.Delay,
		writeURL: opts.URLWriter,
		done:     make(chan struct{}),
	}
}

// SelectCategory is a user selecting a filter. id "" clears it.
func (m *Machine) SelectCategory(id string) error {
	return m.dispatch(SelectCategory{ID: id, Origin: FromUser})
}

// GoToPage is a user picking a page number in paged mode.
func (m *Machine) GoToPage(page int) error {
	return m.dispatch(GoToPage{Page: page, Origin: FromUser})
}

// Navigate restores filter and page from URL values after a back/forward
// navigation. It never writes the URL.
func (m *Machine) Navigate(values url.Values) error {
	m.mu.Lock()
	target := FromQuery(values, m.state.Mode, m.state.PageSize)
	m.mu.Unlock()

	return m.dispatch(
		SelectCategory{ID: target.Category, Origin: FromNavigation},
		GoToPage{Page: target.Page, Origin: FromNavigation},
	)
}

// LoadMore enters the loading state, waits for the configured delay and
// extends the window by one page. It returns ErrBusy while another load is
// in flight, ErrClosed if the machine is closed before the delay elapses and
// the context error if ctx ends first. A category change during the delay
// supersedes the load.
func (m *Machine) LoadMore(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.state.Loading {
		m.mu.Unlock()
		return ErrBusy
	}
	next, _ := Reduce(m.state, LoadMoreStarted{})
	if !next.Loading {
		m.mu.Unlock()
		return nil
	}
	m.state = next
	m.loadSeq++
	seq := m.loadSeq
	m.mu.Unlock()

	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-m.done:
			return ErrClosed
		case <-ctx.Done():
			m.mu.Lock()
			if !m.closed && m.loadSeq == seq && m.state.Loading {
				m.state.Loading = false
			}
			m.mu.Unlock()
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.loadSeq != seq {
		return nil
	}
	m.state, _ = Reduce(m.state, LoadMoreFinished{})
	return nil
}

// Close stops the machine. Pending loads return ErrClosed without touching
// the state. Close is idempotent.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.done)
}

func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Apply(m.state, m.articles)
}

func (m *Machine) dispatch(events ...Event) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}

	var effects []Effect
	for _, ev := range events {
		var out []Effect
		m.state, out = Reduce(m.state, ev)
		effects = append(effects, out...)
	}
	writer := m.writeURL
	m.mu.Unlock()

	if writer == nil {
		return nil
	}
	for _, eff := range effects {
		if w, ok := eff.(WriteURL); ok {
			writer(w.Query)
		}
	}
	return nil
}
