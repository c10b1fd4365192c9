package bridge

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/pinewood-robotics/chatbridge/internal/config"
	"github.com/pinewood-robotics/chatbridge/internal/gchat"
	"github.com/pinewood-robotics/chatbridge/internal/signature"
)

// maxBodyBytes bounds inbound payload reads. Slack events are a few KB.
const maxBodyBytes = 1 << 20

// Headers of the Slack request signing scheme.
const (
	timestampHeader = "X-Slack-Request-Timestamp"
	signatureHeader = "X-Slack-Signature"
)

const tracerName = "chatbridge/bridge"

// IdentityResolver resolves Slack IDs to human-readable names, best-effort.
type IdentityResolver interface {
	ChannelName(ctx context.Context, channelID string) string
	UserDisplayName(ctx context.Context, userID string) string
}

// Relay delivers a bridged message to a destination webhook.
type Relay interface {
	Post(ctx context.Context, webhookURL string, msg gchat.Message) error
}

// Handler is the Slack events endpoint: method and configuration gates,
// signature verification, event routing, relay. Each request is fully
// self-contained; the handler holds no mutable state.
type Handler struct {
	cfg      *config.Config
	verifier *signature.Verifier
	resolver IdentityResolver
	relay    Relay
	routes   map[string]string
	logger   *log.Logger
}

// NewHandler constructs the events handler from the immutable configuration.
func NewHandler(cfg *config.Config, resolver IdentityResolver, relay Relay, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(os.Stdout, "bridge ", log.LstdFlags)
	}
	return &Handler{
		cfg:      cfg,
		verifier: signature.NewVerifier(cfg.SlackSigningSecret),
		resolver: resolver,
		relay:    relay,
		routes:   cfg.Routes(),
		logger:   logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		recordOutcome(r.Context(), outcomeMethodRejected)
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// Misconfiguration is a deployment error, not a transient fault: reject
	// everything until the environment is fixed.
	if missing := h.cfg.MissingVars(); len(missing) > 0 {
		h.logger.Printf("rejecting request, missing configuration: %s", strings.Join(missing, ", "))
		recordOutcome(r.Context(), outcomeMisconfigured)
		writeJSONError(w, http.StatusInternalServerError, "Missing required environment variables")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Printf("failed to read request body: %v", err)
		recordOutcome(r.Context(), outcomeError)
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// The sole authentication boundary; runs before any parsing.
	if !h.verifier.Verify(body, r.Header.Get(timestampHeader), r.Header.Get(signatureHeader)) {
		h.logger.Printf("signature verification failed for request from %s", r.RemoteAddr)
		recordOutcome(r.Context(), outcomeUnauthorized)
		writeJSONError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "bridge.event")
	defer span.End()

	decision := decide(body)
	switch decision.Action {
	case ActionChallenge:
		span.SetAttributes(attribute.String("bridge.outcome", "challenge"))
		recordOutcome(ctx, outcomeChallenge)
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(decision.Challenge))
		return

	case ActionForward:
		h.forward(ctx, decision)

	default:
		h.logger.Printf("skipping event: %s", decision.Reason)
		span.SetAttributes(attribute.String("bridge.outcome", "skipped"))
		recordOutcome(ctx, outcomeSkipped)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// forward resolves identity, matches the route table and relays. Every failure
// in here is recovered locally: the sender still receives 200 and a message is
// relayed at most once.
func (h *Handler) forward(ctx context.Context, d Decision) {
	channelName := h.resolver.ChannelName(ctx, d.ChannelID)

	webhookURL, ok := h.routes[channelName]
	if !ok {
		h.logger.Printf("no route for channel %s (%s), dropping message", d.ChannelID, channelName)
		recordOutcome(ctx, outcomeUnrouted)
		return
	}

	displayName := h.resolver.UserDisplayName(ctx, d.UserID)
	h.logger.Printf("forwarding message from #%s by %s (%d bytes)", channelName, displayName, len(d.Text))

	msg := gchat.NewBridgeMessage(displayName, d.Text, channelName)
	if err := h.relay.Post(ctx, webhookURL, msg); err != nil {
		h.logger.Printf("relay to %s webhook failed: %v", channelName, err)
		recordRelayFailure(ctx, channelName)
		return
	}
	recordOutcome(ctx, outcomeForwarded)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
