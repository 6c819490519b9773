package lifecycle

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/polzovatel/uibdd/internal/assert"
	"github.com/polzovatel/uibdd/internal/browser"
	"github.com/polzovatel/uibdd/internal/web"
)

// State is where a scenario is in its lifecycle.
type State int

const (
	Idle State = iota
	ContextOpen
	PageOpen
	StepRunning
	PageClosed
	ContextClosed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ContextOpen:
		return "context open"
	case PageOpen:
		return "page open"
	case StepRunning:
		return "step running"
	case PageClosed:
		return "page closed"
	case ContextClosed:
		return "context closed"
	}
	return "unknown"
}

// ErrNoScenario is returned when a context carries no scenario.
var ErrNoScenario = errors.New("lifecycle: no scenario in context")

// Scenario is the per-scenario world: one isolated browser context, one
// page and the UI bound to it. It is created when the scenario starts and
// closed when it ends.
type Scenario struct {
	ID     string
	Name   string
	Assert *assert.Asserter
	Log    zerolog.Logger

	bctx browser.Context
	page browser.Page
	ui   *web.UI

	mu     sync.Mutex
	state  State
	values map[string]any
	once   sync.Once
	closed error
}

func (s *Scenario) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scenario) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.Log.Debug().Stringer("state", st).Msg("scenario state")
}

// Set stores a value steps share within the scenario.
func (s *Scenario) Set(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[key] = v
}

func (s *Scenario) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// SwitchUI rebinds the scenario to another page, typically one opened by
// UI.SwitchToNewWindow. The original page stays open until the scenario ends.
func (s *Scenario) SwitchUI(ui *web.UI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ui = ui
}

// UI returns the UI steps act on.
func (s *Scenario) UI() *web.UI {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ui
}

// close releases the page then the context. Later calls return the first result.
func (s *Scenario) close() error {
	s.once.Do(func() {
		var errs []error
		if s.page != nil {
			if err := s.page.Close(); err != nil {
				errs = append(errs, err)
			}
			s.setState(PageClosed)
		}
		if s.bctx != nil {
			if err := s.bctx.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		s.setState(ContextClosed)
		s.closed = errors.Join(errs...)
		s.setState(Idle)
	})
	return s.closed
}

type scenarioKey struct{}

func WithScenario(ctx context.Context, s *Scenario) context.Context {
	return context.WithValue(ctx, scenarioKey{}, s)
}

// FromContext returns the scenario the lifecycle hooks put in ctx.
func FromContext(ctx context.Context) (*Scenario, error) {
	s, ok := ctx.Value(scenarioKey{}).(*Scenario)
	if !ok || s == nil {
		return nil, ErrNoScenario
	}
	return s, nil
}
