package bridge

import (
	"context"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type outcome string

const (
	outcomeForwarded      outcome = "forwarded"
	outcomeSkipped        outcome = "skipped"
	outcomeUnrouted       outcome = "unrouted"
	outcomeChallenge      outcome = "challenge"
	outcomeUnauthorized   outcome = "unauthorized"
	outcomeMisconfigured  outcome = "misconfigured"
	outcomeMethodRejected outcome = "method_rejected"
	outcomeError          outcome = "error"
)

var (
	bridgeMetricsOnce   sync.Once
	eventCounter        metric.Int64Counter
	relayFailureCounter metric.Int64Counter
)

func initBridgeMetrics() {
	bridgeMetricsOnce.Do(func() {
		meter := otel.Meter("chatbridge/bridge")

		var err error
		eventCounter, err = meter.Int64Counter(
			"chatbridge.events.total",
			metric.WithDescription("Inbound Slack webhook requests by outcome"),
		)
		if err != nil {
			log.Printf("observability: failed to create event counter: %v", err)
		}

		relayFailureCounter, err = meter.Int64Counter(
			"chatbridge.relay.failures.total",
			metric.WithDescription("Failed Google Chat webhook deliveries by route"),
		)
		if err != nil {
			log.Printf("observability: failed to create relay failure counter: %v", err)
		}
	})
}

func recordOutcome(ctx context.Context, o outcome) {
	initBridgeMetrics()
	if eventCounter != nil {
		eventCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("outcome", string(o)),
		))
	}
}

func recordRelayFailure(ctx context.Context, route string) {
	initBridgeMetrics()
	if relayFailureCounter != nil {
		relayFailureCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("route", route),
		))
	}
}
