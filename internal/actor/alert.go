package actor

import (
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

// Default alert thresholds applied when configuration provides none.
const (
	DefaultTempHighThreshold     = 30.0
	DefaultTempLowThreshold      = 10.0
	DefaultHumidityHighThreshold = 80.0
	DefaultHumidityLowThreshold  = 20.0
	DefaultBatteryLowPercent     = 30.0
)

// alertTimeLayout stamps alert lines with the wall-clock time of ingestion.
const alertTimeLayout = "15:04:05"

// Alert line templates. Values and thresholds render without trailing
// zeros; the battery percentage keeps one decimal.
const (
	highTempAlertFormat     = "[%s] HIGH TEMP ALERT: Sensor %s reported %s°C (threshold: %s°C)"
	lowTempAlertFormat      = "[%s] LOW TEMP ALERT: Sensor %s reported %s°C (threshold: %s°C)"
	highHumidityAlertFormat = "[%s] HIGH HUMIDITY ALERT: Sensor %s reported %s%% (threshold: %s%%)"
	lowHumidityAlertFormat  = "[%s] LOW HUMIDITY ALERT: Sensor %s reported %s%% (threshold: %s%%)"
	lowBatteryAlertFormat   = "[%s] LOW BATTERY ALERT: Sensor %s battery at %.1f%% (threshold: %s%%)"
)

// Thresholds bounds the readings of one sensor type. A reading beyond a
// bound produces one alert line.
type Thresholds struct {
	TempHigh          float64
	TempLow           float64
	HumidityHigh      float64
	HumidityLow       float64
	BatteryLowPercent float64
}

// DefaultThresholds returns the threshold set used when a sensor type has
// no explicit configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TempHigh:          DefaultTempHighThreshold,
		TempLow:           DefaultTempLowThreshold,
		HumidityHigh:      DefaultHumidityHighThreshold,
		HumidityLow:       DefaultHumidityLowThreshold,
		BatteryLowPercent: DefaultBatteryLowPercent,
	}
}

// AlertRequest is the union of messages the alert actor accepts.
type AlertRequest interface {
	isAlertRequest()
}

// AlertsRequest asks the alert actor for its newline-joined alert log.
type AlertsRequest struct {
	Response chan<- string
}

func (IngestRequest) isAlertRequest() {}
func (AlertsRequest) isAlertRequest() {}

// AlertOption adjusts an Alert actor at construction time.
type AlertOption func(*Alert)

// WithTypeThresholds overrides the thresholds applied to one sensor type.
func WithTypeThresholds(t record.Type, th Thresholds) AlertOption {
	return func(a *Alert) {
		a.overrides[t] = th
	}
}

// WithClock replaces the wall clock used to stamp alert lines.
func WithClock(now func() time.Time) AlertOption {
	return func(a *Alert) {
		a.now = now
	}
}

// Alert is the actor evaluating every reading against thresholds and
// keeping the resulting alert log. All state is touched only by the drain
// loop.
type Alert struct {
	box    *mailbox[AlertRequest]
	logger *slog.Logger
	now    func() time.Time

	fallback  Thresholds
	overrides map[record.Type]Thresholds
	log       []string
}

// NewAlert builds a stopped alert actor. The fallback thresholds apply to
// every sensor type without an override; a zero fallback selects the
// defaults.
func NewAlert(fallback Thresholds, mailboxSize int, logger *slog.Logger, opts ...AlertOption) *Alert {
	if fallback == (Thresholds{}) {
		fallback = DefaultThresholds()
	}

	if mailboxSize <= 0 {
		mailboxSize = DefaultMailboxSize
	}

	if logger == nil {
		logger = slog.Default()
	}

	a := &Alert{
		box:       newMailbox[AlertRequest](mailboxSize),
		logger:    logger,
		now:       time.Now,
		fallback:  fallback,
		overrides: make(map[record.Type]Thresholds),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start spawns the drain loop.
func (a *Alert) Start() {
	a.box.start(a.handle)
}

// Stop closes the mailbox and waits for the drain loop to finish.
func (a *Alert) Stop() {
	a.box.stop()
}

// Enqueue delivers a request, blocking while the mailbox is full. Fails with
// ErrStopped once the actor has shut down.
func (a *Alert) Enqueue(req AlertRequest) error {
	return a.box.enqueue(req)
}

// ThresholdsFor returns the thresholds applied to the given sensor type.
func (a *Alert) ThresholdsFor(t record.Type) Thresholds {
	if th, ok := a.overrides[t]; ok {
		return th
	}

	return a.fallback
}

// Overrides returns a copy of the per-type threshold table.
func (a *Alert) Overrides() map[record.Type]Thresholds {
	return maps.Clone(a.overrides)
}

func (a *Alert) handle(req AlertRequest) {
	switch r := req.(type) {
	case IngestRequest:
		a.evaluate(r.Record)
	case AlertsRequest:
		r.Response <- strings.Join(a.log, "\n")
	default:
		a.logger.Warn("alert actor dropped unknown request",
			slog.String("request", fmt.Sprintf("%T", req)))
	}
}

// evaluate appends at most one alert line per dimension: temperature,
// humidity, battery.
func (a *Alert) evaluate(rec record.Record) {
	th := a.ThresholdsFor(rec.Type)
	stamp := a.now().Format(alertTimeLayout)

	switch {
	case rec.Temperature > th.TempHigh:
		a.log = append(a.log, fmt.Sprintf(highTempAlertFormat,
			stamp, rec.Serial, trimFloat(rec.Temperature), trimFloat(th.TempHigh)))
	case rec.Temperature > 0 && rec.Temperature < th.TempLow:
		a.log = append(a.log, fmt.Sprintf(lowTempAlertFormat,
			stamp, rec.Serial, trimFloat(rec.Temperature), trimFloat(th.TempLow)))
	}

	switch {
	case rec.Humidity > th.HumidityHigh:
		a.log = append(a.log, fmt.Sprintf(highHumidityAlertFormat,
			stamp, rec.Serial, trimFloat(rec.Humidity), trimFloat(th.HumidityHigh)))
	case rec.Humidity > 0 && rec.Humidity < th.HumidityLow:
		a.log = append(a.log, fmt.Sprintf(lowHumidityAlertFormat,
			stamp, rec.Serial, trimFloat(rec.Humidity), trimFloat(th.HumidityLow)))
	}

	if rec.HasBattery() {
		if pct := rec.BatteryPercent(); pct < th.BatteryLowPercent {
			a.log = append(a.log, fmt.Sprintf(lowBatteryAlertFormat,
				stamp, rec.Serial, pct, trimFloat(th.BatteryLowPercent)))
		}
	}
}

// trimFloat renders a float without trailing zeros.
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
