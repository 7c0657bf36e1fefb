// Package savings holds the tracker engine: balance ledger, streak evaluator,
// goal calculator and the transaction orchestrator, plus tracker and
// membership management. Every operation takes the acting user id explicitly.
package savings

import (
	"log/slog"
	"time"

	"saveit/internal/events"

	"gorm.io/gorm"
)

// Service is safe for concurrent use.
type Service struct {
	db         *gorm.DB
	loc        *time.Location
	publisher  events.Publisher
	encryptKey string
	now        func() time.Time
	locks      *trackerLocks
	log        *slog.Logger
}

type Option func(*Service)

// WithLocation sets the time zone that defines streak days. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithEncryptionKey enables AES encryption of transaction notes.
func WithEncryptionKey(key string) Option {
	return func(s *Service) { s.encryptKey = key }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:        db,
		loc:       time.UTC,
		publisher: events.Noop{},
		now:       time.Now,
		locks:     newTrackerLocks(),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "savings")
	return s
}

// Location is the streak time zone.
func (s *Service) Location() *time.Location { return s.loc }

// clock is the current time in UTC; stored timestamps are always UTC.
func (s *Service) clock() time.Time { return s.now().UTC() }
