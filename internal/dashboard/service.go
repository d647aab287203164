// Package dashboard derives dashboard figures from the application state.
//
// Every method is a read over the current store contents: nothing is cached
// and nothing is written back. Missing collections read as empty, and records
// with unparsable dates are reported as *MetricsInputError and skipped.
package dashboard

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/dyluth/roster/internal/logfields"
	"github.com/dyluth/roster/internal/timespec"
	"github.com/dyluth/roster/pkg/state"
	"github.com/jonboulle/clockwork"
)

// DefaultDeadlineWindowDays is how far ahead UpcomingDeadlines looks.
const DefaultDeadlineWindowDays = 30

// Service computes dashboard metrics from a state store.
type Service struct {
	store  *state.Store
	clock  clockwork.Clock
	loc    *time.Location
	window int
	sink   func(error)
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source. Tests use a fake clock.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLocation sets the time zone that defines "today" and month boundaries.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithDeadlineWindow sets the number of days UpcomingDeadlines looks ahead.
func WithDeadlineWindow(days int) Option {
	return func(s *Service) { s.window = days }
}

// WithErrorSink receives MetricsInputErrors instead of the logger.
func WithErrorSink(sink func(error)) Option {
	return func(s *Service) { s.sink = sink }
}

// WithLogger sets the logger used by the default error sink.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a metrics service reading from store.
func NewService(store *state.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		clock:  clockwork.NewRealClock(),
		loc:    time.Local,
		window: DefaultDeadlineWindowDays,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sink == nil {
		s.sink = func(err error) {
			s.logger.Warn("skipping record with malformed date", logfields.Error(err))
		}
	}
	return s
}

// UnpaidSummary lists completed projects that have not been paid.
type UnpaidSummary struct {
	Projects    []state.Project `json:"projects"`
	Count       int             `json:"count"`
	TotalBudget float64         `json:"total_budget"`
}

// Metrics is the aggregate of all dashboard figures.
type Metrics struct {
	AsOf               time.Time       `json:"as_of"`
	TalentCount        int             `json:"talent_count"`
	ActiveProjectCount int             `json:"active_project_count"`
	Utilization        int             `json:"utilization"`
	UpcomingDeadlines  []state.Project `json:"upcoming_deadlines"`
	Unpaid             UnpaidSummary   `json:"unpaid"`
}

// Now returns the current time in the service's location.
func (s *Service) Now() time.Time {
	return s.clock.Now().In(s.loc)
}

// TalentCount returns the number of talents.
func (s *Service) TalentCount() int {
	talents, _ := state.Get(s.store, state.Talents)
	return len(talents)
}

// ActiveProjectCount returns the number of projects in progress.
func (s *Service) ActiveProjectCount() int {
	projects, _ := state.Get(s.store, state.Projects)
	n := 0
	for _, p := range projects {
		if p.Status == state.ProjectStatusInProgress {
			n++
		}
	}
	return n
}

// Utilization returns allocated talent-days in the current month as a
// percentage of capacity (talents x days in month), rounded to an integer.
//
// Each allocation contributes the days it overlaps the month, both ends
// inclusive. Overlapping allocations for the same talent are summed, so the
// figure can exceed 100 when talents are double-booked.
func (s *Service) Utilization() int {
	talents := s.TalentCount()
	if talents == 0 {
		return 0
	}

	first, last := timespec.MonthBounds(s.Now())
	capacity := talents * last.Day()

	allocations, _ := state.Get(s.store, state.Allocations)
	allocated := 0
	for _, a := range allocations {
		start, ok := s.parseDate(state.PathAllocations, a.ID, "start_date", a.StartDate)
		if !ok {
			continue
		}
		end, ok := s.parseDate(state.PathAllocations, a.ID, "end_date", a.EndDate)
		if !ok {
			continue
		}

		lo, hi := later(start, first), earlier(end, last)
		if lo.After(hi) {
			continue
		}
		allocated += timespec.DaysBetween(lo, hi) + 1
	}

	return int(math.Round(float64(allocated) / float64(capacity) * 100))
}

// UpcomingDeadlines returns projects whose end date falls between today and
// today plus the deadline window, inclusive, ordered by end date.
// Projects without an end date are ignored.
func (s *Service) UpcomingDeadlines() []state.Project {
	today := timespec.Day(s.Now())
	limit := today.AddDate(0, 0, s.window)

	projects, _ := state.Get(s.store, state.Projects)

	type due struct {
		project state.Project
		date    time.Time
	}
	var upcoming []due
	for _, p := range projects {
		if p.EndDate == "" {
			continue
		}
		d, ok := s.parseDate(state.PathProjects, p.ID, "end_date", p.EndDate)
		if !ok {
			continue
		}
		if d.Before(today) || d.After(limit) {
			continue
		}
		upcoming = append(upcoming, due{project: p, date: d})
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].date.Before(upcoming[j].date)
	})

	out := make([]state.Project, len(upcoming))
	for i, u := range upcoming {
		out[i] = u.project
	}
	return out
}

// UnpaidProjectsSummary returns completed projects that are not paid and
// the sum of their budgets.
func (s *Service) UnpaidProjectsSummary() UnpaidSummary {
	projects, _ := state.Get(s.store, state.Projects)

	summary := UnpaidSummary{Projects: []state.Project{}}
	for _, p := range projects {
		if p.Status != state.ProjectStatusCompleted || p.IsPaid {
			continue
		}
		summary.Projects = append(summary.Projects, p)
		summary.TotalBudget += p.Budget
	}
	summary.Count = len(summary.Projects)
	return summary
}

// AllMetrics computes every figure. Each one re-reads the store.
func (s *Service) AllMetrics() Metrics {
	return Metrics{
		AsOf:               s.Now(),
		TalentCount:        s.TalentCount(),
		ActiveProjectCount: s.ActiveProjectCount(),
		Utilization:        s.Utilization(),
		UpcomingDeadlines:  s.UpcomingDeadlines(),
		Unpaid:             s.UnpaidProjectsSummary(),
	}
}

func (s *Service) parseDate(collection state.Path, id, field, value string) (time.Time, bool) {
	d, err := timespec.ParseDate(value, s.loc)
	if err != nil {
		s.sink(&MetricsInputError{
			Collection: collection,
			RecordID:   id,
			Field:      field,
			Value:      value,
			Err:        err,
		})
		return time.Time{}, false
	}
	return d, true
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
