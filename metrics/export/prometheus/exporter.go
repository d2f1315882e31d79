package prometheus

import (
	"net/http"
	"strings"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	goAccount "github.com/MrEthical07/goAccount"
)

type metricsSource interface {
	MetricsSnapshot() goAccount.MetricsSnapshot
	AuditDropped() uint64
}

const textContentType = "text/plain; version=0.0.4; charset=utf-8"

// PrometheusExporter renders goAccount metrics in the text exposition format
// for callers that do not run a client_golang registry of their own.
type PrometheusExporter struct {
	source   metricsSource
	registry *prom.Registry
}

// NewPrometheusExporter reads from m on every scrape.
func NewPrometheusExporter(m *goAccount.Manager) *PrometheusExporter {
	return NewPrometheusExporterFromSource(m)
}

func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	registry := prom.NewPedanticRegistry()
	registry.MustRegister(NewCollectorFromSource(source))
	return &PrometheusExporter{source: source, registry: registry}
}

// Handler serves Render.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", textContentType)
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics, or "" when metrics are disabled and no
// audit event was dropped.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}
	snapshot := p.source.MetricsSnapshot()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && p.source.AuditDropped() == 0 {
		return ""
	}

	families, err := p.registry.Gather()
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&b, mf); err != nil {
			return ""
		}
	}
	return b.String()
}
