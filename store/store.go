package store

import (
	"sync"

	"github.com/grovetools/dqm/logging"
	"github.com/grovetools/dqm/pkg/models"
	"github.com/sirupsen/logrus"
)

// Store is the application state shared by every view. It is safe for
// concurrent use and publishes every mutation to its subscribers.
type Store struct {
	mu          sync.RWMutex
	backend     Backend
	logger      *logrus.Entry
	subscribers map[chan Update]struct{}

	ui       uiState
	business businessState
}

// Option configures a Store.
type Option func(*Store)

// WithVersion sets the application version shown by views.
func WithVersion(version string) Option {
	return func(s *Store) {
		s.ui.version = version
	}
}

// WithDebug enables debug views.
func WithDebug(debug bool) Option {
	return func(s *Store) {
		s.ui.debug = debug
	}
}

// WithFeedbackFormURL sets the feedback form link.
func WithFeedbackFormURL(url string) Option {
	return func(s *Store) {
		s.ui.feedbackFormURL = url
	}
}

// WithDrawer sets the initial drawer state.
func WithDrawer(open bool) Option {
	return func(s *Store) {
		s.ui.drawer = open
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store backed by the given backend. The store starts with an
// empty unsaved suite, an open drawer and the built-in catalogs.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:     backend,
		subscribers: make(map[chan Update]struct{}),
		ui:          newUIState(),
		business: businessState{
			suite:          models.NewSuite(),
			accounts:       []models.Account{},
			checksMetadata: []models.CheckMetadata{},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewLogger("dqm-store")
	}
	return s
}

// Subscribe creates a new subscription channel for state updates.
func (s *Store) Subscribe() chan Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Update, subscriberBuffer)
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Store) Unsubscribe(ch chan Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; !ok {
		return
	}
	delete(s.subscribers, ch)
	close(ch)
}

// broadcast notifies subscribers. The caller holds the write lock.
func (s *Store) broadcast(u Update) {
	for ch := range s.subscribers {
		select {
		case ch <- u:
		default:
			// Slow subscribers miss updates rather than stall mutations.
		}
	}
}
