package actor

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

// StoreRequest is the union of messages the data-store actor accepts.
type StoreRequest interface {
	isStoreRequest()
}

// IngestRequest records one reading. Fire-and-forget; both actors accept it.
type IngestRequest struct {
	Record record.Record
}

// AnalyzeRequest asks the data store for aggregate statistics covering one
// sensor type.
type AnalyzeRequest struct {
	Type     record.Type
	Response chan<- StatsResult
}

// StatusRequest asks the data store for its processing counters.
type StatusRequest struct {
	Response chan<- StoreStatus
}

// HistoryRequest asks the data store for a deep copy of everything stored.
type HistoryRequest struct {
	Response chan<- map[string][]record.Record
}

func (IngestRequest) isStoreRequest()  {}
func (AnalyzeRequest) isStoreRequest() {}
func (StatusRequest) isStoreRequest()  {}
func (HistoryRequest) isStoreRequest() {}

// StatsResult aggregates readings of every sensor that reported the
// requested type. Count is the number of distinct such sensors; the means
// cover all readings those sensors produced, skipping absent fields.
type StatsResult struct {
	Count        int
	Temperature  float64
	Humidity     float64
	BatteryLevel float64
}

// StoreStatus reports the data store's counters.
type StoreStatus struct {
	Processed int
	Sensors   int
}

// DataStore is the actor owning per-sensor reading history. All state is
// touched only by the drain loop.
type DataStore struct {
	box    *mailbox[StoreRequest]
	logger *slog.Logger

	storage   map[string][]record.Record
	processed int
}

// NewDataStore builds a stopped data-store actor with the given mailbox
// capacity.
func NewDataStore(mailboxSize int, logger *slog.Logger) *DataStore {
	if mailboxSize <= 0 {
		mailboxSize = DefaultMailboxSize
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &DataStore{
		box:     newMailbox[StoreRequest](mailboxSize),
		logger:  logger,
		storage: make(map[string][]record.Record),
	}
}

// Start spawns the drain loop.
func (d *DataStore) Start() {
	d.box.start(d.handle)
}

// Stop closes the mailbox and waits for the drain loop to finish. Requests
// already accepted are handled before Stop returns.
func (d *DataStore) Stop() {
	d.box.stop()
}

// Enqueue delivers a request, blocking while the mailbox is full. Fails with
// ErrStopped once the actor has shut down.
func (d *DataStore) Enqueue(req StoreRequest) error {
	return d.box.enqueue(req)
}

func (d *DataStore) handle(req StoreRequest) {
	switch r := req.(type) {
	case IngestRequest:
		if r.Record.Serial == "" {
			d.logger.Debug("data store dropped record without serial")

			return
		}

		d.storage[r.Record.Serial] = append(d.storage[r.Record.Serial], r.Record)
		d.processed++
	case AnalyzeRequest:
		r.Response <- d.analyze(r.Type)
	case StatusRequest:
		r.Response <- StoreStatus{Processed: d.processed, Sensors: len(d.storage)}
	case HistoryRequest:
		r.Response <- d.snapshot()
	default:
		d.logger.Warn("data store dropped unknown request",
			slog.String("request", fmt.Sprintf("%T", req)))
	}
}

func (d *DataStore) analyze(t record.Type) StatsResult {
	var (
		res                     StatsResult
		tempSum, humSum, batSum float64
		tempN, humN, batN       int
	)

	for _, history := range d.storage {
		if !historyContains(history, t) {
			continue
		}

		res.Count++

		for _, rec := range history {
			if rec.Temperature > 0 {
				tempSum += rec.Temperature
				tempN++
			}

			if rec.Humidity > 0 {
				humSum += rec.Humidity
				humN++
			}

			if rec.HasBattery() {
				batSum += rec.BatteryPercent()
				batN++
			}
		}
	}

	if tempN > 0 {
		res.Temperature = tempSum / float64(tempN)
	}

	if humN > 0 {
		res.Humidity = humSum / float64(humN)
	}

	if batN > 0 {
		res.BatteryLevel = batSum / float64(batN)
	}

	return res
}

// snapshot deep-copies storage so callers can read it after the reply
// without racing the drain loop.
func (d *DataStore) snapshot() map[string][]record.Record {
	out := make(map[string][]record.Record, len(d.storage))

	for serial, history := range d.storage {
		out[serial] = slices.Clone(history)
	}

	return out
}

func historyContains(history []record.Record, t record.Type) bool {
	for _, rec := range history {
		if rec.Type == t {
			return true
		}
	}

	return false
}
