// Package telemetry exports traces and metrics over OTLP. Without a setup the
// global otel providers stay no-ops.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Telemetry struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
}

// Shutdown flushes everything that is still buffered.
func (t Telemetry) Shutdown(ctx context.Context) error {
	errlist := []error{}
	if t.TracerProvider != nil {
		errlist = append(errlist, t.TracerProvider.Shutdown(ctx))
	}
	if t.MeterProvider != nil {
		errlist = append(errlist, t.MeterProvider.Shutdown(ctx))
	}
	return errors.Join(errlist...)
}

type OtlpConnConfig struct {
	GrpcEndpoint string            `json:"grpc_endpoint"`
	HttpEndpoint string            `json:"http_endpoint"`
	Headers      map[string]string `json:"headers"`
}

func (c OtlpConnConfig) enabled() bool {
	return c.GrpcEndpoint != "" || c.HttpEndpoint != ""
}

// grpc wins when both endpoints are set
func (c OtlpConnConfig) spanExporter(ctx context.Context) (trace.SpanExporter, error) {
	if c.GrpcEndpoint != "" {
		return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(c.GrpcEndpoint), otlptracegrpc.WithHeaders(c.Headers))
	}
	return otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(c.HttpEndpoint), otlptracehttp.WithHeaders(c.Headers))
}

func (c OtlpConnConfig) metricExporter(ctx context.Context) (metric.Exporter, error) {
	if c.GrpcEndpoint != "" {
		return otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpointURL(c.GrpcEndpoint), otlpmetricgrpc.WithHeaders(c.Headers))
	}
	return otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(c.HttpEndpoint), otlpmetrichttp.WithHeaders(c.Headers))
}

type OtlpConfig struct {
	Traces  OtlpConnConfig `json:"traces"`
	Metrics OtlpConnConfig `json:"metrics"`
}

type Config struct {
	Otlp OtlpConfig `json:"otlp"`
	// MetricInterval is the export interval in seconds, defaults to 5.
	MetricInterval int `json:"metric_interval"`
}

func (c Config) metricInterval() time.Duration {
	if c.MetricInterval <= 0 {
		return time.Second * 5
	}
	return time.Second * time.Duration(c.MetricInterval)
}

// Setup installs global tracer and meter providers for every signal with an
// endpoint in the config. Signals without one keep the no-op providers.
func Setup(ctx context.Context, serviceName string, config Config) (Telemetry, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return Telemetry{}, fmt.Errorf("otel resource: %w", err)
	}

	var tel Telemetry
	if config.Otlp.Traces.enabled() {
		exporter, err := config.Otlp.Traces.spanExporter(ctx)
		if err != nil {
			return tel, fmt.Errorf("trace exporter: %w", err)
		}
		tel.TracerProvider = trace.NewTracerProvider(
			trace.WithBatcher(exporter),
			trace.WithResource(res),
		)
		otel.SetTracerProvider(tel.TracerProvider)
	}

	if config.Otlp.Metrics.enabled() {
		exporter, err := config.Otlp.Metrics.metricExporter(ctx)
		if err != nil {
			return tel, fmt.Errorf("metric exporter: %w", err)
		}
		reader := metric.NewPeriodicReader(exporter, metric.WithInterval(config.metricInterval()))
		tel.MeterProvider = metric.NewMeterProvider(
			metric.WithReader(reader),
			metric.WithResource(res),
		)
		otel.SetMeterProvider(tel.MeterProvider)
	}

	return tel, nil
}
