// Package monitor drives the repeated query, evaluate and alert cycle.
package monitor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/mini-rodalies-3d/ticketwatch/internal/availability"
	"github.com/mini-rodalies-3d/ticketwatch/internal/db"
	"github.com/mini-rodalies-3d/ticketwatch/internal/metrics"
	"github.com/mini-rodalies-3d/ticketwatch/internal/ticket"
)

// Querier performs one ticket query
type Querier interface {
	Query(ctx context.Context, spec ticket.QuerySpec) []ticket.Record
}

// Alerter gets the operator's attention
type Alerter interface {
	PlayAlertSound()
	ShowNotification(title, message string)
}

// Decider asks the operator a yes/no question
type Decider interface {
	Confirm(label string) (bool, error)
}

// Renderer displays a poll's records
type Renderer interface {
	Render(records []ticket.Record)
}

// HistoryRecorder persists evaluated polls
type HistoryRecorder interface {
	RecordPoll(ctx context.Context, p db.Poll) (string, error)
	Cleanup(ctx context.Context, retention time.Duration) error
}

// continuePrompt is asked after every alert
const continuePrompt = "是否继续监控?"

// Options configures a Monitor
type Options struct {
	Interval     time.Duration
	AlertRepeats int
	AlertGap     time.Duration
	// History is optional; nil disables poll history
	History   HistoryRecorder
	Retention time.Duration
}

// Status is a point-in-time copy of the monitor's state
type Status struct {
	FromStation        string                 `json:"from_station"`
	ToStation          string                 `json:"to_station"`
	TrainDate          string                 `json:"train_date"`
	TrainCodes         []string               `json:"train_codes"`
	SeatClasses        []ticket.SeatClass     `json:"seat_classes"`
	IntervalSeconds    int                    `json:"interval_seconds"`
	State              string                 `json:"state"`
	Running            bool                   `json:"running"`
	Polls              int                    `json:"polls"`
	Alerts             int                    `json:"alerts"`
	LastPollAt         *time.Time             `json:"last_poll_at,omitempty"`
	LastTrainCount     int                    `json:"last_train_count"`
	LastAvailableCount int                    `json:"last_available_count"`
	Latency            metrics.LatencySummary `json:"latency"`
}

// Monitor repeatedly queries for tickets and alerts when seats appear
type Monitor struct {
	spec     ticket.QuerySpec
	querier  Querier
	alerter  Alerter
	decider  Decider
	renderer Renderer
	opts     Options
	latency  *metrics.LatencyTracker

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	mu     sync.Mutex
	status Status
}

// New creates a monitor for the given query
func New(spec ticket.QuerySpec, querier Querier, alerter Alerter, decider Decider, renderer Renderer, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.AlertRepeats < 1 {
		opts.AlertRepeats = 1
	}

	return &Monitor{
		spec:     spec,
		querier:  querier,
		alerter:  alerter,
		decider:  decider,
		renderer: renderer,
		opts:     opts,
		latency:  metrics.NewLatencyTracker(),
		sleep:    sleepContext,
		now:      time.Now,
		status: Status{
			FromStation:     spec.FromStation,
			ToStation:       spec.ToStation,
			TrainDate:       spec.Date,
			TrainCodes:      spec.TrainCodes,
			SeatClasses:     availability.Effective(spec.SeatClasses),
			IntervalSeconds: int(opts.Interval / time.Second),
			State:           Stopped.String(),
		},
	}
}

// Run drives the loop until the operator declines to continue after an alert
// (returning nil) or ctx is cancelled (returning ctx.Err()).
func (m *Monitor) Run(ctx context.Context) error {
	log.Printf("Monitor: watching %s -> %s on %s every %v", m.spec.FromStation, m.spec.ToStation, m.spec.Date, m.opts.Interval)
	m.update(func(s *Status) { s.Running = true })

	var records, available []ticket.Record
	state := Polling
	for {
		m.update(func(s *Status) { s.State = state.String() })

		switch state {
		case Polling:
			records = m.poll(ctx)
			switch {
			case ctx.Err() != nil:
				state = Stopped
			case len(records) == 0:
				log.Println("Monitor: no matching trains found")
				m.update(func(s *Status) {
					s.LastTrainCount = 0
					s.LastAvailableCount = 0
				})
				state = Sleeping
			default:
				state = Evaluating
			}

		case Evaluating:
			available = m.evaluate(ctx, records)
			if len(available) > 0 {
				state = Alerted
			} else {
				state = Sleeping
			}

		case Alerted:
			if m.alert(ctx, available) {
				state = Sleeping
			} else {
				state = Stopped
			}

		case Sleeping:
			log.Printf("Monitor: next query in %v", m.opts.Interval)
			if err := m.sleep(ctx, m.opts.Interval); err != nil {
				state = Stopped
			} else {
				state = Polling
			}

		case Stopped:
			m.update(func(s *Status) { s.Running = false })
			if err := ctx.Err(); err != nil {
				log.Println("Monitor: stopped by shutdown")
				return err
			}
			log.Println("Monitor: stopped by operator")
			return nil
		}
	}
}

// Snapshot returns a copy of the current status
func (m *Monitor) Snapshot() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.status
	s.TrainCodes = append([]string(nil), m.status.TrainCodes...)
	s.SeatClasses = append([]ticket.SeatClass(nil), m.status.SeatClasses...)
	if m.status.LastPollAt != nil {
		t := *m.status.LastPollAt
		s.LastPollAt = &t
	}
	s.Latency = m.latency.Summary()
	return s
}

func (m *Monitor) update(fn func(s *Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.status)
}

func (m *Monitor) poll(ctx context.Context) []ticket.Record {
	started := m.now()
	log.Printf("Monitor: querying %s -> %s on %s...", m.spec.FromStation, m.spec.ToStation, m.spec.Date)

	records := m.querier.Query(ctx, m.spec)

	took := m.now().Sub(started)
	m.latency.Observe(took)
	log.Printf("Monitor: query returned %d trains in %v (%s)", len(records), took.Round(time.Millisecond), m.latency.Summary())

	m.update(func(s *Status) {
		s.Polls++
		s.LastPollAt = &started
	})
	return records
}

func (m *Monitor) evaluate(ctx context.Context, records []ticket.Record) []ticket.Record {
	m.renderer.Render(records)

	available, _ := availability.Partition(records, m.spec.SeatClasses)
	log.Printf("Monitor: %d of %d trains have seats in the watched classes", len(available), len(records))

	m.update(func(s *Status) {
		s.LastTrainCount = len(records)
		s.LastAvailableCount = len(available)
	})
	m.recordHistory(ctx, records, len(available))
	return available
}

func (m *Monitor) recordHistory(ctx context.Context, records []ticket.Record, availableCount int) {
	if m.opts.History == nil {
		return
	}

	summary := m.latency.Summary()
	poll := db.Poll{
		PolledAt:       m.now(),
		FromStation:    m.spec.FromStation,
		ToStation:      m.spec.ToStation,
		TrainDate:      m.spec.Date,
		TrainCount:     len(records),
		AvailableCount: availableCount,
		QueryDuration:  summary.Last,
	}
	for _, rec := range records {
		seats := make(map[string]string, len(rec.Seats))
		for class, token := range rec.Seats {
			seats[string(class)] = token
		}
		poll.Observations = append(poll.Observations, db.Observation{
			TrainCode:     rec.TrainCode,
			DepartureTime: rec.DepartureTime,
			ArrivalTime:   rec.ArrivalTime,
			Duration:      rec.Duration,
			Seats:         seats,
			Available:     availability.IsAvailable(rec, m.spec.SeatClasses),
		})
	}

	if _, err := m.opts.History.RecordPoll(ctx, poll); err != nil {
		log.Printf("Warning: failed to record poll history: %v", err)
		return
	}
	if m.opts.Retention > 0 {
		if err := m.opts.History.Cleanup(ctx, m.opts.Retention); err != nil {
			log.Printf("Warning: history cleanup failed: %v", err)
		}
	}
}

// alert notifies the operator and reports whether monitoring should continue
func (m *Monitor) alert(ctx context.Context, available []ticket.Record) bool {
	log.Printf("Monitor: tickets available on %d trains!", len(available))
	m.update(func(s *Status) { s.Alerts++ })

	for i := 0; i < m.opts.AlertRepeats; i++ {
		m.alerter.PlayAlertSound()
		if i < m.opts.AlertRepeats-1 {
			if err := m.sleep(ctx, m.opts.AlertGap); err != nil {
				return false
			}
		}
	}

	title, message := Notification(m.spec, available)
	m.alerter.ShowNotification(title, message)

	if ctx.Err() != nil {
		return false
	}

	ok, err := m.decider.Confirm(continuePrompt)
	if err != nil {
		log.Printf("Warning: could not read operator answer, continuing: %v", err)
		return true
	}
	return ok
}

// Notification builds the alert title and message for the available trains
func Notification(spec ticket.QuerySpec, available []ticket.Record) (title, message string) {
	title = fmt.Sprintf("12306 车票提醒 - %s到%s", spec.FromStation, spec.ToStation)

	var lines []string
	for _, rec := range available {
		lines = append(lines, fmt.Sprintf("车次: %s, 出发: %s", rec.TrainCode, rec.DepartureTime))
		for _, seat := range availability.AvailableSeats(rec, spec.SeatClasses) {
			lines = append(lines, fmt.Sprintf("  %s: %s", seat.Class.Label(), seat.Token))
		}
	}
	return title, strings.Join(lines, "\n")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
