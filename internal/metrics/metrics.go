// Package metrics defines the bot's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesReceived counts inbound Telegram updates by type.
	UpdatesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surveybot_updates_received_total",
			Help: "The total number of Telegram updates received.",
		},
		[]string{"update_type"},
	)

	// UsersRegistered counts first-time registrations.
	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "surveybot_users_registered_total",
			Help: "The total number of new users registered.",
		},
	)

	// AnswersRecorded counts recorded survey answers by value.
	AnswersRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surveybot_answers_recorded_total",
			Help: "The total number of survey answers recorded.",
		},
		[]string{"answer"},
	)

	// CommandsDenied counts commands refused by the access policy.
	CommandsDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surveybot_commands_denied_total",
			Help: "The total number of commands refused by the access policy.",
		},
		[]string{"command"},
	)

	// StorageFailures counts failed persistence operations surfaced to users.
	StorageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surveybot_storage_failures_total",
			Help: "The total number of failed storage operations.",
		},
		[]string{"operation"},
	)
)
