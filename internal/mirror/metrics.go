package mirror

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики синхронизации.
var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dc_sync_refresh_total",
		Help: "Загрузки коллекций по результату (ok, error, skipped, discarded).",
	}, []string{"collection", "result"})
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dc_sync_mutations_total",
		Help: "Операции записи по коллекции, операции и результату.",
	}, []string{"collection", "operation", "result"})
	loadingGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dc_sync_loading",
		Help: "1, пока идёт загрузка коллекции.",
	}, []string{"collection"})
	detailCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dc_detail_cache_hits_total",
		Help: "Общее количество попаданий в кэш карточек дел.",
	})
	detailCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dc_detail_cache_misses_total",
		Help: "Общее количество промахов кэша карточек дел.",
	})
)
