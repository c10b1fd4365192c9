package bridge

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pinewood-robotics/chatbridge/internal/config"
	"github.com/pinewood-robotics/chatbridge/internal/gchat"
	"github.com/pinewood-robotics/chatbridge/internal/identity"
	"github.com/pinewood-robotics/chatbridge/internal/signature"
)

const (
	testSecret          = "8f742231b10e8888abcd99yyyzzz85a5"
	generalWebhook      = "https://chat.example.com/general"
	announcementWebhook = "https://chat.example.com/announcements"
)

// fakeResolver maps channel IDs to names and returns a fixed display name.
type fakeResolver struct {
	channelNames map[string]string
	displayName  string
}

func (f *fakeResolver) ChannelName(ctx context.Context, channelID string) string {
	if name, ok := f.channelNames[channelID]; ok {
		return name
	}
	return identity.UnknownChannel
}

func (f *fakeResolver) UserDisplayName(ctx context.Context, userID string) string {
	if f.displayName != "" {
		return f.displayName
	}
	return identity.DisplayNameFrom(userID)
}

type relayCall struct {
	url string
	msg gchat.Message
}

// recordingRelay captures relay calls instead of posting them.
type recordingRelay struct {
	calls []relayCall
	err   error
}

func (r *recordingRelay) Post(ctx context.Context, webhookURL string, msg gchat.Message) error {
	r.calls = append(r.calls, relayCall{url: webhookURL, msg: msg})
	return r.err
}

func testConfig() *config.Config {
	return &config.Config{
		SlackSigningSecret:           testSecret,
		SlackBotToken:                "xoxb-test",
		GChatGeneralWebhookURL:       generalWebhook,
		GChatAnnouncementsWebhookURL: announcementWebhook,
	}
}

func newTestHandler(cfg *config.Config, resolver IdentityResolver, relay Relay) *Handler {
	return NewHandler(cfg, resolver, relay, log.New(io.Discard, "", 0))
}

// signedRequest builds a POST with valid signing headers for body.
func signedRequest(body string) *http.Request {
	const timestamp = "1531420618"
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set(timestampHeader, timestamp)
	req.Header.Set(signatureHeader, signature.Sign(testSecret, timestamp, []byte(body)))
	return req
}

func messageBody(channel, user, text string) string {
	payload := map[string]any{
		"type": "event_callback",
		"event": map[string]any{
			"type":    "message",
			"channel": channel,
			"user":    user,
			"text":    text,
			"ts":      "1355517523.000005",
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestHandlerMethodGate(t *testing.T) {
	handler := newTestHandler(testConfig(), &fakeResolver{}, &recordingRelay{})

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodHead} {
		req := httptest.NewRequest(method, "/slack/events", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code, "method %s", method)
	}
}

func TestHandlerConfigGate(t *testing.T) {
	cfg := testConfig()
	cfg.SlackSigningSecret = ""
	relay := &recordingRelay{}
	handler := newTestHandler(cfg, &fakeResolver{}, relay)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(messageBody("C1", "U12345678", "hello")))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Missing required environment variables")
	require.Empty(t, relay.calls)
}

func TestHandlerRejectsBadSignature(t *testing.T) {
	relay := &recordingRelay{}
	handler := newTestHandler(testConfig(), &fakeResolver{}, relay)

	body := messageBody("C1", "U12345678", "hello")

	t.Run("wrong signature", func(t *testing.T) {
		// Repeated invalid requests must always be rejected and never relay.
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
			req.Header.Set(timestampHeader, "1531420618")
			req.Header.Set(signatureHeader, "v0=0000000000000000000000000000000000000000000000000000000000000000")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		}
		require.Empty(t, relay.calls)
	})

	t.Run("missing headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Empty(t, relay.calls)
	})

	t.Run("tampered body", func(t *testing.T) {
		req := signedRequest(body)
		req.Body = io.NopCloser(strings.NewReader(body + " "))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Empty(t, relay.calls)
	})
}

func TestHandlerChallengeEcho(t *testing.T) {
	relay := &recordingRelay{}
	handler := newTestHandler(testConfig(), &fakeResolver{}, relay)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(`{"type":"url_verification","token":"t","challenge":"abc123"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "abc123", rec.Body.String())
	require.Empty(t, relay.calls)
}

func TestHandlerAbsorbsIrrelevantEvents(t *testing.T) {
	resolver := &fakeResolver{channelNames: map[string]string{"C1": "general"}}

	cases := map[string]string{
		"subtype message": `{"type":"event_callback","event":{"type":"message","subtype":"message_changed","channel":"C1","user":"U12345678","text":"edited"}}`,
		"whitespace text": messageBody("C1", "U12345678", "   "),
		"missing user":    `{"type":"event_callback","event":{"type":"message","channel":"C1","text":"hi"}}`,
		"reaction event":  `{"type":"event_callback","event":{"type":"reaction_added","user":"U12345678","reaction":"eyes"}}`,
		"unknown shape":   `{"what":"is this"}`,
		"malformed json":  `{"type":`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			relay := &recordingRelay{}
			handler := newTestHandler(testConfig(), resolver, relay)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, signedRequest(body))

			require.Equal(t, http.StatusOK, rec.Code)
			require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
			require.Empty(t, relay.calls)
		})
	}
}

func TestHandlerRouting(t *testing.T) {
	resolver := &fakeResolver{
		channelNames: map[string]string{
			"C-GEN": "general",
			"C-ANN": "announcements",
			"C-RND": "random",
		},
		displayName: "Jordan",
	}

	t.Run("general routes to the general webhook", func(t *testing.T) {
		relay := &recordingRelay{}
		handler := newTestHandler(testConfig(), resolver, relay)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, signedRequest(messageBody("C-GEN", "U12345678", "hello there")))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, relay.calls, 1)
		require.Equal(t, generalWebhook, relay.calls[0].url)
		require.Equal(t, "Jordan: hello there", relay.calls[0].msg.Text)
		require.Contains(t, relay.calls[0].msg.Cards[0].Header.Subtitle, "#general")
	})

	t.Run("announcements routes to the announcements webhook", func(t *testing.T) {
		relay := &recordingRelay{}
		handler := newTestHandler(testConfig(), resolver, relay)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, signedRequest(messageBody("C-ANN", "U12345678", "big news")))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, relay.calls, 1)
		require.Equal(t, announcementWebhook, relay.calls[0].url)
	})

	t.Run("unconfigured channel is dropped", func(t *testing.T) {
		relay := &recordingRelay{}
		handler := newTestHandler(testConfig(), resolver, relay)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, signedRequest(messageBody("C-RND", "U12345678", "offtopic")))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, relay.calls)
	})

	t.Run("extra route table entries are honored", func(t *testing.T) {
		cfg := testConfig()
		cfg.SetExtraRoutes(map[string]string{"random": "https://chat.example.com/random"})
		relay := &recordingRelay{}
		handler := newTestHandler(cfg, resolver, relay)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, signedRequest(messageBody("C-RND", "U12345678", "offtopic")))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, relay.calls, 1)
		require.Equal(t, "https://chat.example.com/random", relay.calls[0].url)
	})
}

func TestHandlerFailSoftIdentity(t *testing.T) {
	// Resolver that knows no channels: everything degrades to "unknown".
	relay := &recordingRelay{}
	handler := newTestHandler(testConfig(), &fakeResolver{}, relay)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(messageBody("C-MISSING", "U12345678", "hello")))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, relay.calls, "unknown sentinel must not match a route")
}

func TestHandlerRelayFailureIsNotSurfaced(t *testing.T) {
	resolver := &fakeResolver{channelNames: map[string]string{"C-GEN": "general"}}
	relay := &recordingRelay{err: context.DeadlineExceeded}
	handler := newTestHandler(testConfig(), resolver, relay)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(messageBody("C-GEN", "U12345678", "hello")))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.Len(t, relay.calls, 1, "delivery is attempted exactly once, never retried")
}
