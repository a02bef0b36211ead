package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStatter is satisfied by *pgxpool.Pool.
type PoolStatter interface {
	Stat() *pgxpool.Stat
}

// NewPoolCollector exposes connection pool statistics as gauges.
func NewPoolCollector(pool PoolStatter) []prometheus.Collector {
	gauge := func(name, help string, value func(*pgxpool.Stat) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "saaslens",
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 { return value(pool.Stat()) })
	}
	return []prometheus.Collector{
		gauge("acquired_conns", "Connections currently checked out of the pool", func(s *pgxpool.Stat) float64 {
			return float64(s.AcquiredConns())
		}),
		gauge("idle_conns", "Idle connections in the pool", func(s *pgxpool.Stat) float64 {
			return float64(s.IdleConns())
		}),
		gauge("total_conns", "Open connections in the pool", func(s *pgxpool.Stat) float64 {
			return float64(s.TotalConns())
		}),
		gauge("max_conns", "Configured pool size", func(s *pgxpool.Stat) float64 {
			return float64(s.MaxConns())
		}),
		gauge("empty_acquire_total", "Acquires that had to wait for a connection", func(s *pgxpool.Stat) float64 {
			return float64(s.EmptyAcquireCount())
		}),
	}
}

// RegisterPoolMetrics registers the pool gauges with the default registry.
func RegisterPoolMetrics(pool PoolStatter) {
	prometheus.MustRegister(NewPoolCollector(pool)...)
}
