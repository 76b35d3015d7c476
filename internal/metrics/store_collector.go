package metrics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/osvaldoandrade/coffeeshop/pkg/persistence"

	"github.com/prometheus/client_golang/prometheus"
)

// storeCollector reports the drink count and backend health at scrape time.
type storeCollector struct {
	store  atomic.Pointer[storeTarget]
	logger *slog.Logger

	drinksDesc *prometheus.Desc
	upDesc     *prometheus.Desc
}

type storeTarget struct {
	plugin persistence.PluginPersistence
	kind   string
}

func newStoreCollector(logger *slog.Logger) *storeCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &storeCollector{
		logger: logger,
		drinksDesc: prometheus.NewDesc(
			"coffeeshop_drinks_stored",
			"Current number of drinks on the menu.",
			[]string{"backend"},
			nil,
		),
		upDesc: prometheus.NewDesc(
			"coffeeshop_store_up",
			"Whether the storage backend answered its health check (1) or not (0).",
			[]string{"backend"},
			nil,
		),
	}
}

func (c *storeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.drinksDesc
	ch <- c.upDesc
}

func (c *storeCollector) Collect(ch chan<- prometheus.Metric) {
	target := c.store.Load()
	if target == nil {
		return
	}

	// Keep storage reads bounded so scrapes do not hang.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := target.plugin.Health(ctx); err != nil {
		c.logger.Warn("prometheus store collector health check failed", "err", err)
		emit(ch, c.upDesc, prometheus.GaugeValue, 0, target.kind)
		return
	}
	emit(ch, c.upDesc, prometheus.GaugeValue, 1, target.kind)

	n, err := target.plugin.DrinkStorage().Count(ctx)
	if err != nil {
		c.logger.Warn("prometheus store collector count failed", "err", err)
		return
	}
	emit(ch, c.drinksDesc, prometheus.GaugeValue, float64(n), target.kind)
}

var (
	registerStoreCollectorOnce sync.Once
	storeCollectorInstance     *storeCollector
)

// RegisterStoreCollector reports on plugin from now on. kind labels the
// backend (memory, redis, postgres).
func RegisterStoreCollector(plugin persistence.PluginPersistence, kind string, logger *slog.Logger) {
	registerStoreCollectorOnce.Do(func() {
		storeCollectorInstance = newStoreCollector(logger)
		prometheus.MustRegister(storeCollectorInstance)
	})
	storeCollectorInstance.store.Store(&storeTarget{plugin: plugin, kind: kind})
}
