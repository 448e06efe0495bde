package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	ProfilesCreated      prometheus.Counter
	ProfileFieldsChanged *prometheus.CounterVec
	EventsCreated        prometheus.Counter
	Registrations        *prometheus.CounterVec
	AttendanceMarked     prometheus.Counter
	ProfileNotices       *prometheus.CounterVec
	HTTPLatency          *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics on reg. Tests pass a fresh registry
// so repeated construction does not panic on duplicate registration.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ProfilesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "egresados_profiles_created_total",
			Help: "Total number of alumni profiles created",
		}),
		ProfileFieldsChanged: f.NewCounterVec(prometheus.CounterOpts{
			Name: "egresados_profile_field_changes_total",
			Help: "Tracked profile fields changed, by field",
		}, []string{"field"}),
		EventsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "egresados_events_created_total",
			Help: "Total number of events created",
		}),
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "egresados_event_registrations_total",
			Help: "Event registration attempts by outcome",
		}, []string{"outcome"}),
		AttendanceMarked: f.NewCounter(prometheus.CounterOpts{
			Name: "egresados_attendance_updates_total",
			Help: "Attendance flag updates applied by admins",
		}),
		ProfileNotices: f.NewCounterVec(prometheus.CounterOpts{
			Name: "egresados_profile_notices_total",
			Help: "Profile change notices by delivery outcome",
		}, []string{"outcome"}),
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "egresados_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// IncrementProfilesCreated increments the profiles created counter by 1
func (m *Metrics) IncrementProfilesCreated() {
	m.ProfilesCreated.Inc()
}

// ObserveFieldChanges counts one change per changed field.
func (m *Metrics) ObserveFieldChanges(fields []string) {
	for _, f := range fields {
		m.ProfileFieldsChanged.WithLabelValues(f).Inc()
	}
}

// IncrementEventsCreated increments the events created counter by 1
func (m *Metrics) IncrementEventsCreated() {
	m.EventsCreated.Inc()
}

// ObserveRegistration records a registration outcome ("created" or "existing").
func (m *Metrics) ObserveRegistration(outcome string) {
	m.Registrations.WithLabelValues(outcome).Inc()
}

// IncrementAttendanceMarked increments the attendance updates counter by 1
func (m *Metrics) IncrementAttendanceMarked() {
	m.AttendanceMarked.Inc()
}

// ObserveProfileNotice records a notice delivery outcome ("published", "failed" or "dropped").
func (m *Metrics) ObserveProfileNotice(outcome string) {
	m.ProfileNotices.WithLabelValues(outcome).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
