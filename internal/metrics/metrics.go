// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for FormSubmissions.
const (
	OutcomeCreated  = "created"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
	OutcomeLimited  = "rate_limited"
)

var (
	FormSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_submissions_total",
			Help: "Form submissions handled, by form and outcome.",
		}, []string{"form", "outcome"})

	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Best-effort notification sends, by result.",
		}, []string{"result"})

	FeedbackIssues = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_issues_total",
			Help: "Issue tracker calls made for feedback, by result.",
		}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		FormSubmissions,
		Notifications,
		FeedbackIssues,
	)
}
