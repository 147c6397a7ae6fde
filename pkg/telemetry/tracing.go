// Package telemetry はOpenTelemetryのトレーサープロバイダを初期化する。
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// ShutdownFunc はトレーサープロバイダを停止し、未送信のスパンを送信する関数。
type ShutdownFunc func(ctx context.Context) error

// Config はトレーサーの設定。
type Config struct {
	// ServiceName はリソース属性に設定するサービス名。
	ServiceName string
	// Version はサービスのバージョン。
	Version string
	// Env は実行環境名。
	Env string
	// Endpoint はOTLP/gRPCコレクタのアドレス。空の場合はトレースを無効にする。
	Endpoint string
}

// Init はOTLP/gRPCへスパンを送信するトレーサープロバイダをグローバルに設定する。
// Endpointが空の場合は何もせず、何もしないShutdownFuncを返す。
func Init(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	if cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("OTLPエクスポーターの作成に失敗: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}

// newResource はサービスを識別するリソースを作成する。
func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(version),
			semconv.DeploymentEnvironmentKey.String(cfg.Env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("トレースリソースの作成に失敗: %w", err)
	}
	return res, nil
}
