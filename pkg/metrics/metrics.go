// Package metrics holds the Prometheus counters of the social features.
//
// Every counter carries a single "status" label (success/failed). Counters
// register lazily on the default registry, so packages can increment without
// caring about startup order; /metrics serves them through promhttp.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Status maps an operation error to its label value.
func Status(err error) string {
	if err != nil {
		return StatusFailed
	}
	return StatusSuccess
}

var (
	registerOnce sync.Once

	userRegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_registrations_total",
			Help: "Total number of signup attempts",
		},
		[]string{"status"},
	)

	userLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_logins_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"},
	)

	friendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_requests_total",
			Help: "Total number of friend request attempts",
		},
		[]string{"status"},
	)

	friendAcceptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_accepts_total",
			Help: "Total number of friend request accept attempts, including auto-accepts",
		},
		[]string{"status"},
	)

	friendRejectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_rejects_total",
			Help: "Total number of friend request reject attempts",
		},
		[]string{"status"},
	)

	friendRemovalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_removals_total",
			Help: "Total number of unfriend attempts",
		},
		[]string{"status"},
	)

	chatMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total number of chat message post attempts",
		},
		[]string{"status"},
	)
)

// Register adds every counter to the default registry. Safe to call many
// times.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			userRegistrationsTotal,
			userLoginsTotal,
			friendRequestsTotal,
			friendAcceptsTotal,
			friendRejectsTotal,
			friendRemovalsTotal,
			chatMessagesTotal,
		)
	})
}

func IncUserRegistration(status string) {
	Register()
	userRegistrationsTotal.WithLabelValues(status).Inc()
}

func IncUserLogin(status string) {
	Register()
	userLoginsTotal.WithLabelValues(status).Inc()
}

func IncFriendRequest(status string) {
	Register()
	friendRequestsTotal.WithLabelValues(status).Inc()
}

func IncFriendAccept(status string) {
	Register()
	friendAcceptsTotal.WithLabelValues(status).Inc()
}

func IncFriendReject(status string) {
	Register()
	friendRejectsTotal.WithLabelValues(status).Inc()
}

func IncFriendRemoval(status string) {
	Register()
	friendRemovalsTotal.WithLabelValues(status).Inc()
}

func IncChatMessage(status string) {
	Register()
	chatMessagesTotal.WithLabelValues(status).Inc()
}
