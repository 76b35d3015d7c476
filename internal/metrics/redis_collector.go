package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

// redisPoolCollector reports connection pool statistics of the redis client
// backing drink storage.
type redisPoolCollector struct {
	rdb atomic.Pointer[redis.Client]

	connsDesc   *prometheus.Desc
	hitsDesc    *prometheus.Desc
	missesDesc  *prometheus.Desc
	timeoutDesc *prometheus.Desc
}

func newRedisPoolCollector() *redisPoolCollector {
	return &redisPoolCollector{
		connsDesc: prometheus.NewDesc(
			"coffeeshop_redis_pool_connections",
			"Current redis pool connections by state.",
			[]string{"state"},
			nil,
		),
		hitsDesc: prometheus.NewDesc(
			"coffeeshop_redis_pool_hits_total",
			"Times a free connection was found in the pool.",
			nil, nil,
		),
		missesDesc: prometheus.NewDesc(
			"coffeeshop_redis_pool_misses_total",
			"Times a free connection was not found in the pool.",
			nil, nil,
		),
		timeoutDesc: prometheus.NewDesc(
			"coffeeshop_redis_pool_timeouts_total",
			"Times a wait for a pool connection timed out.",
			nil, nil,
		),
	}
}

func (c *redisPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.connsDesc
	ch <- c.hitsDesc
	ch <- c.missesDesc
	ch <- c.timeoutDesc
}

func (c *redisPoolCollector) Collect(ch chan<- prometheus.Metric) {
	rdb := c.rdb.Load()
	if rdb == nil {
		return
	}
	stats := rdb.PoolStats()

	emit(ch, c.connsDesc, prometheus.GaugeValue, float64(stats.TotalConns), "total")
	emit(ch, c.connsDesc, prometheus.GaugeValue, float64(stats.IdleConns), "idle")
	emit(ch, c.connsDesc, prometheus.GaugeValue, float64(stats.StaleConns), "stale")
	emit(ch, c.hitsDesc, prometheus.CounterValue, float64(stats.Hits))
	emit(ch, c.missesDesc, prometheus.CounterValue, float64(stats.Misses))
	emit(ch, c.timeoutDesc, prometheus.CounterValue, float64(stats.Timeouts))
}

func emit(ch chan<- prometheus.Metric, desc *prometheus.Desc, typ prometheus.ValueType, v float64, labelValues ...string) {
	m, err := prometheus.NewConstMetric(desc, typ, v, labelValues...)
	if err != nil {
		return
	}
	ch <- m
}

var (
	registerRedisCollectorOnce sync.Once
	redisCollector             = newRedisPoolCollector()
)

// RegisterRedisCollector points the pool collector at rdb, registering it on
// first use.
func RegisterRedisCollector(rdb *redis.Client) {
	registerRedisCollectorOnce.Do(func() {
		prometheus.MustRegister(redisCollector)
	})
	redisCollector.rdb.Store(rdb)
}
