// Package metrics собирает метрики Prometheus сервиса галерей.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gallery_keeper_http_requests_total",
		Help: "Количество HTTP запросов",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gallery_keeper_http_request_duration_seconds",
		Help:    "Длительность обработки HTTP запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Recorder - доменные метрики, которые пишут сервисы.
type Recorder interface {
	RecordTokenIssued(scope string)
	RecordCredentialFailure(kind string)
	RecordAssetCleanup(ok bool)
}

type Collector struct {
	tokensIssued       *prometheus.CounterVec
	credentialFailures *prometheus.CounterVec
	assetCleanups      *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_keeper_tokens_issued_total",
			Help: "Выданные токены доступа по области",
		}, []string{"scope"}),
		credentialFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_keeper_credential_failures_total",
			Help: "Неудачные проверки секретов галерей",
		}, []string{"kind"}),
		assetCleanups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_keeper_asset_cleanups_total",
			Help: "Удаления файлов фотографий из хранилища",
		}, []string{"result"}),
	}

	reg.MustRegister(c.tokensIssued, c.credentialFailures, c.assetCleanups)

	return c
}

func (c *Collector) RecordTokenIssued(scope string) {
	c.tokensIssued.WithLabelValues(scope).Inc()
}

func (c *Collector) RecordCredentialFailure(kind string) {
	c.credentialFailures.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordAssetCleanup(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	c.assetCleanups.WithLabelValues(result).Inc()
}

// Nop отбрасывает все метрики.
type Nop struct{}

func (Nop) RecordTokenIssued(string)       {}
func (Nop) RecordCredentialFailure(string) {}
func (Nop) RecordAssetCleanup(bool)        {}
