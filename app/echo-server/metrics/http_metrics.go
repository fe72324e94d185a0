package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "borlette_http_request_duration_seconds",
		Help:    "Latency of API requests by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	RequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "borlette_http_requests_in_flight",
		Help: "API requests currently being served",
	})
)

func Init() {
	prometheus.MustRegister(RequestDuration, RequestsInFlight)
}

// Middleware records request latency labelled by the matched route
// pattern, never the raw path, to keep label cardinality bounded.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			RequestsInFlight.Inc()
			defer RequestsInFlight.Dec()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			RequestDuration.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(c.Response().Status)).
				Observe(time.Since(start).Seconds())

			return nil
		}
	}
}

// Handler serves the default registry.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
