package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports dashboard figures as Prometheus gauges.
// Figures are computed from the store on every scrape.
type Collector struct {
	svc *Service

	talents        *prometheus.Desc
	activeProjects *prometheus.Desc
	utilization    *prometheus.Desc
	deadlines      *prometheus.Desc
	unpaidProjects *prometheus.Desc
	unpaidBudget   *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector for svc labelled with the workspace name.
func NewCollector(svc *Service, workspace string) *Collector {
	labels := prometheus.Labels{"workspace": workspace}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("roster", "", name), help, nil, labels)
	}
	return &Collector{
		svc:            svc,
		talents:        desc("talents", "Number of talents."),
		activeProjects: desc("active_projects", "Number of projects in progress."),
		utilization:    desc("utilization_percent", "Allocated talent-days this month as a percentage of capacity."),
		deadlines:      desc("upcoming_deadlines", "Projects due within the deadline window."),
		unpaidProjects: desc("unpaid_projects", "Completed projects not yet paid."),
		unpaidBudget:   desc("unpaid_budget", "Total budget of completed, unpaid projects."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.talents
	ch <- c.activeProjects
	ch <- c.utilization
	ch <- c.deadlines
	ch <- c.unpaidProjects
	ch <- c.unpaidBudget
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	m := c.svc.AllMetrics()

	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	gauge(c.talents, float64(m.TalentCount))
	gauge(c.activeProjects, float64(m.ActiveProjectCount))
	gauge(c.utilization, float64(m.Utilization))
	gauge(c.deadlines, float64(len(m.UpcomingDeadlines)))
	gauge(c.unpaidProjects, float64(m.Unpaid.Count))
	gauge(c.unpaidBudget, m.Unpaid.TotalBudget)
}
