// metrics — счётчики исходов операций аутентификации.
// Регистрируются в default-регистре prometheus; отдаются наружу
// через /metrics служебного сервера (promhttp).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метки result: "ok" либо короткий код отказа ("invalid_credentials",
// "inactive", "denied", "duplicate", "error").
var (
	registrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Total number of registration attempts.",
		},
		[]string{"result"},
	)

	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Total number of login attempts.",
		},
		[]string{"result"},
	)

	refreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_refreshes_total",
			Help: "Total number of access-token refresh attempts.",
		},
		[]string{"result"},
	)

	logoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_logouts_total",
			Help: "Total number of logouts.",
		},
	)
)

func ObserveRegistration(result string) { registrationsTotal.WithLabelValues(result).Inc() }
func ObserveLogin(result string)        { loginsTotal.WithLabelValues(result).Inc() }
func ObserveRefresh(result string)      { refreshesTotal.WithLabelValues(result).Inc() }
func ObserveLogout()                    { logoutsTotal.Inc() }
