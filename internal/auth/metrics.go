package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "myquiz_admin_login_attempts_total",
		Help: "Admin login attempts by result.",
	}, []string{"result"})

	passwordUpgrades = promauto.NewCounter(prometheus.CounterOpts{
		Name: "myquiz_admin_password_upgrades_total",
		Help: "Plaintext admin passwords rehashed with bcrypt on login.",
	})

	loginDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "myquiz_admin_login_duration_seconds",
		Help:    "Admin login latency including password hashing.",
		Buckets: prometheus.DefBuckets,
	})
)

const (
	resultSuccess     = "success"
	resultInvalid     = "invalid"
	resultRateLimited = "rate_limited"
	resultError       = "error"
)
