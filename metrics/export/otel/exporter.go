package otel

import (
	"context"
	"errors"
	"fmt"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goAccount.MetricsSnapshot
	AuditDropped() uint64
}

// observeFunc reports one instrument's value from a snapshot taken for the
// current collection.
type observeFunc func(metric.Observer, goAccount.MetricsSnapshot)

// OTelExporter publishes goAccount metrics as observable instruments. Values
// are read from the source on each collection.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	observers    []observeFunc
	instruments  []metric.Observable
}

// NewOTelExporter registers instruments on meter that read from m.
func NewOTelExporter(meter metric.Meter, m *goAccount.Manager) (*OTelExporter, error) {
	if m == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, m)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	switch {
	case meter == nil:
		return nil, ErrNilMeter
	case source == nil:
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	for _, def := range internaldefs.CounterDefs {
		if err := e.addCounter(meter, def.ID, def.Name, def.Help); err != nil {
			return nil, err
		}
	}
	for _, def := range internaldefs.HistogramDefs {
		if err := e.addHistogram(meter, def.ID, def.Name); err != nil {
			return nil, err
		}
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("otel: counter %s: %w", internaldefs.AuditDroppedName, err)
	}
	e.instruments = append(e.instruments, dropped)
	e.observers = append(e.observers, func(o metric.Observer, _ goAccount.MetricsSnapshot) {
		o.ObserveInt64(dropped, int64(source.AuditDropped()))
	})

	e.registration, err = meter.RegisterCallback(e.collect, e.instruments...)
	if err != nil {
		return nil, fmt.Errorf("otel: register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) addCounter(meter metric.Meter, id goAccount.MetricID, name, help string) error {
	ins, err := meter.Int64ObservableCounter(name, metric.WithDescription(help))
	if err != nil {
		return fmt.Errorf("otel: counter %s: %w", name, err)
	}
	e.instruments = append(e.instruments, ins)
	e.observers = append(e.observers, func(o metric.Observer, s goAccount.MetricsSnapshot) {
		o.ObserveInt64(ins, int64(s.Counters[id]))
	})
	return nil
}

// addHistogram exposes a histogram as one cumulative gauge per bucket bound
// plus a _count gauge. Nothing is observed while the histogram is disabled.
func (e *OTelExporter) addHistogram(meter metric.Meter, id goAccount.MetricID, name string) error {
	gauges := make([]metric.Int64ObservableGauge, 0, len(internaldefs.HistogramBoundSuffix)+1)
	for _, suffix := range internaldefs.HistogramBoundSuffix {
		g, err := meter.Int64ObservableGauge(name+"_bucket_le_"+suffix,
			metric.WithDescription("Cumulative histogram bucket count."))
		if err != nil {
			return fmt.Errorf("otel: gauge %s_bucket_le_%s: %w", name, suffix, err)
		}
		gauges = append(gauges, g)
	}
	count, err := meter.Int64ObservableGauge(name+"_count", metric.WithDescription("Histogram total sample count."))
	if err != nil {
		return fmt.Errorf("otel: gauge %s_count: %w", name, err)
	}
	for _, g := range gauges {
		e.instruments = append(e.instruments, g)
	}
	e.instruments = append(e.instruments, count)

	e.observers = append(e.observers, func(o metric.Observer, s goAccount.MetricsSnapshot) {
		raw, ok := s.Histograms[id]
		if !ok {
			return
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, g := range gauges {
			o.ObserveInt64(g, int64(cumulative[i]))
		}
		o.ObserveInt64(count, int64(cumulative[len(cumulative)-1]))
	})
	return nil
}

func (e *OTelExporter) collect(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, observe := range e.observers {
		observe(o, snapshot)
	}
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
