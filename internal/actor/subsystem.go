package actor

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

// Config assembles a Subsystem. Zero values select the package defaults.
type Config struct {
	// MailboxSize bounds each actor's pending request queue.
	MailboxSize int

	// ReplyTimeout caps how long request-reply helpers wait for an answer.
	ReplyTimeout time.Duration

	// Thresholds applies to every sensor type without an explicit override.
	Thresholds Thresholds

	// Overrides replaces the fallback thresholds for specific sensor types.
	Overrides map[record.Type]Thresholds

	// Clock stamps alert lines. Defaults to time.Now.
	Clock func() time.Time

	// Logger receives actor diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Subsystem owns the data-store and alert actors and exposes typed
// request-reply helpers over their mailboxes.
type Subsystem struct {
	store   *DataStore
	alert   *Alert
	timeout time.Duration
	logger  *slog.Logger
}

// NewSubsystem builds a stopped subsystem from cfg.
func NewSubsystem(cfg Config) *Subsystem {
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = DefaultReplyTimeout
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := make([]AlertOption, 0, len(cfg.Overrides)+1)
	for t, th := range cfg.Overrides {
		opts = append(opts, WithTypeThresholds(t, th))
	}

	if cfg.Clock != nil {
		opts = append(opts, WithClock(cfg.Clock))
	}

	return &Subsystem{
		store:   NewDataStore(cfg.MailboxSize, cfg.Logger),
		alert:   NewAlert(cfg.Thresholds, cfg.MailboxSize, cfg.Logger, opts...),
		timeout: cfg.ReplyTimeout,
		logger:  cfg.Logger,
	}
}

// Start spawns both drain loops.
func (s *Subsystem) Start() {
	s.store.Start()
	s.alert.Start()
}

// Send enqueues the record for ingestion by both actors. It blocks while a
// mailbox is full and fails once the subsystem has shut down.
func (s *Subsystem) Send(rec record.Record) error {
	storeErr := s.store.Enqueue(IngestRequest{Record: rec})
	alertErr := s.alert.Enqueue(IngestRequest{Record: rec})

	if storeErr != nil || alertErr != nil {
		return fmt.Errorf("dispatch record %q: %w", rec.Serial, errors.Join(storeErr, alertErr))
	}

	return nil
}

// AnalyzeType asks the data store for aggregate statistics covering one
// sensor type.
func (s *Subsystem) AnalyzeType(t record.Type) (StatsResult, error) {
	res, err := request(s.timeout, func(reply chan<- StatsResult) error {
		return s.store.Enqueue(AnalyzeRequest{Type: t, Response: reply})
	})
	if err != nil {
		return StatsResult{}, fmt.Errorf("analyze %s: %w", t, err)
	}

	return res, nil
}

// Processed asks the data store for its processing counters.
func (s *Subsystem) Processed() (StoreStatus, error) {
	res, err := request(s.timeout, func(reply chan<- StoreStatus) error {
		return s.store.Enqueue(StatusRequest{Response: reply})
	})
	if err != nil {
		return StoreStatus{}, fmt.Errorf("store status: %w", err)
	}

	return res, nil
}

// AlertLog asks the alert actor for its newline-joined alert log. The log is
// empty while no reading has crossed a threshold.
func (s *Subsystem) AlertLog() (string, error) {
	res, err := request(s.timeout, func(reply chan<- string) error {
		return s.alert.Enqueue(AlertsRequest{Response: reply})
	})
	if err != nil {
		return "", fmt.Errorf("alert log: %w", err)
	}

	return res, nil
}

// StoredHistory asks the data store for a deep copy of all stored readings,
// keyed by sensor serial.
func (s *Subsystem) StoredHistory() (map[string][]record.Record, error) {
	res, err := request(s.timeout, func(reply chan<- map[string][]record.Record) error {
		return s.store.Enqueue(HistoryRequest{Response: reply})
	})
	if err != nil {
		return nil, fmt.Errorf("stored history: %w", err)
	}

	return res, nil
}

// Shutdown stops both actors. Accepted requests drain before it returns;
// later Sends fail with ErrStopped. Safe to call more than once.
func (s *Subsystem) Shutdown() {
	s.store.Stop()
	s.alert.Stop()
}

// request enqueues a reply-carrying message and waits for the answer. The
// reply channel is buffered so a late answer never blocks the actor.
func request[T any](timeout time.Duration, enqueue func(chan<- T) error) (T, error) {
	var zero T

	reply := make(chan T, 1)
	if err := enqueue(reply); err != nil {
		return zero, err
	}

	select {
	case res := <-reply:
		return res, nil
	case <-time.After(timeout):
		return zero, ErrTimeout
	}
}
