package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas del core de sesión. Viven en un paquete aparte para que session,
// authclient y el server HTTP las compartan sin ciclos de import.

var (
	LoginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_logins_total",
		Help: "Logins por resultado",
	}, []string{"result"}) // success|rejected|invalid_grant

	LogoutsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_logouts_total",
		Help: "Cierres de sesión por modo",
	}, []string{"mode"}) // full|quick|teardown

	RefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_refresh_total",
		Help: "Refresh de access token por resultado",
	}, []string{"result"}) // success|failure|reused|cleared

	RefreshLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "console_refresh_latency_ms",
		Help:    "Latencia de la llamada de refresh en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_requests_total",
		Help: "Requests del pipeline autorizado por resultado",
	}, []string{"outcome"}) // ok|retried_ok|forbidden|not_found|server|client|network|setup|unauthorized|session_expired

	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "console_active_sessions",
		Help: "Sesiones vivas en el registry del BFF",
	})
)

// Register registra las métricas en reg (o el default si es nil).
// Registrar dos veces no es error.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{LoginsTotal, LogoutsTotal, RefreshTotal, RefreshLatency, RequestsTotal, ActiveSessions} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
