package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes resolver-level instruments.
type Metrics struct {
	availabilityChecks metric.Int64Counter
	reservations       metric.Int64Counter
	releases           metric.Int64Counter
	priceQuotes        metric.Int64Counter
	refundResolutions  metric.Int64Counter
	policyGaps         metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "roomledger"
	}
	meter := provider.Meter(name)

	var (
		m   Metrics
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
	}{
		{&m.availabilityChecks, "roomledger_availability_checks_total"},
		{&m.reservations, "roomledger_reservations_total"},
		{&m.releases, "roomledger_releases_total"},
		{&m.priceQuotes, "roomledger_price_quotes_total"},
		{&m.refundResolutions, "roomledger_refund_resolutions_total"},
		{&m.policyGaps, "roomledger_policy_gaps_total"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name)
		if err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// RecordAvailabilityCheck counts checks by whether the stay was available.
func (m *Metrics) RecordAvailabilityCheck(ctx context.Context, available bool) {
	if m == nil {
		return
	}
	m.availabilityChecks.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("outcome", outcome(available, "available", "unavailable")),
	)...))
}

// RecordReservation counts reserve attempts by outcome (ok, insufficient_capacity, error).
func (m *Metrics) RecordReservation(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.reservations.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("outcome", strings.TrimSpace(result)),
	)...))
}

func (m *Metrics) RecordRelease(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.releases.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("outcome", strings.TrimSpace(result)),
	)...))
}

func (m *Metrics) RecordPriceQuote(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.priceQuotes.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("outcome", strings.TrimSpace(result)),
	)...))
}

func (m *Metrics) RecordRefundResolution(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.refundResolutions.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("outcome", strings.TrimSpace(result)),
	)...))
}

// RecordPolicyGap counts missing configuration hits per resolver and reason.
func (m *Metrics) RecordPolicyGap(ctx context.Context, resolver, reason string) {
	if m == nil {
		return
	}
	m.policyGaps.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("resolver", strings.TrimSpace(resolver)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)...))
}

func outcome(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"outcome":     {},
	"resolver":    {},
	"reason":      {},
	"operation":   {},
	"status_code": {},
	"route":       {},
	"method":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
// Room type, hotel and date identifiers never become labels.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
