package config

import (
	"fmt"
	"strings"
	"time"

	env "github.com/netflix/go-env"
)

// Canonical route names. Every deployment carries these two; extras come from
// CHAT_BRIDGE_EXTRA_ROUTES.
const (
	RouteGeneral       = "general"
	RouteAnnouncements = "announcements"
)

// Config holds all bridge settings resolved from environment variables. It is
// constructed once at startup and passed by parameter; components never read
// the process environment directly.
type Config struct {
	// Slack inbound: webhook signing secret and Web API token for
	// channel/user lookups.
	SlackSigningSecret string `env:"SLACK_SIGNING_SECRET"`
	SlackBotToken      string `env:"SLACK_BOT_TOKEN"`

	// Google Chat incoming-webhook URLs for the canonical routes.
	GChatGeneralWebhookURL       string `env:"GOOGLE_CHAT_GENERAL_WEBHOOK_URL"`
	GChatAnnouncementsWebhookURL string `env:"GOOGLE_CHAT_ANNOUNCEMENTS_WEBHOOK_URL"`

	// Additional route table entries as "name=url,name=url".
	ExtraRoutesStr string `env:"CHAT_BRIDGE_EXTRA_ROUTES"`
	extraRoutes    map[string]string

	// Outbound call bounds
	SlackLookupTimeout  time.Duration `env:"SLACK_LOOKUP_TIMEOUT,default=3s"`
	GChatWebhookTimeout time.Duration `env:"GCHAT_WEBHOOK_TIMEOUT,default=5s"`

	// HTTP server settings
	ServerHost            string        `env:"BRIDGE_SERVER_HOST,default=0.0.0.0"`
	ServerPort            int           `env:"BRIDGE_SERVER_PORT,default=8080"`
	ServerReadTimeout     time.Duration `env:"BRIDGE_SERVER_READ_TIMEOUT,default=30s"`
	ServerWriteTimeout    time.Duration `env:"BRIDGE_SERVER_WRITE_TIMEOUT,default=30s"`
	ServerIdleTimeout     time.Duration `env:"BRIDGE_SERVER_IDLE_TIMEOUT,default=120s"`
	ServerShutdownTimeout time.Duration `env:"BRIDGE_SERVER_SHUTDOWN_TIMEOUT,default=30s"`

	// OpenTelemetry settings
	OTelEnabled              bool          `env:"OTEL_ENABLED,default=false"`
	OTelServiceName          string        `env:"OTEL_SERVICE_NAME,default=chatbridge"`
	OTelExporterOTLPEndpoint string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelExporterOTLPProtocol string        `env:"OTEL_EXPORTER_OTLP_PROTOCOL,default=http/protobuf"`
	OTelResourceAttributes   string        `env:"OTEL_RESOURCE_ATTRIBUTES"`
	OTelMetricExportInterval time.Duration `env:"OTEL_METRIC_EXPORT_INTERVAL,default=60s"`
}

// Load loads configuration from environment variables.
//
// Missing required values are not a load error: the original deployment model
// discovers them per request, so the server starts and the request gatekeeper
// rejects traffic until they are set. Use MissingVars to inspect completeness.
func Load() (*Config, error) {
	var config Config

	_, err := env.UnmarshalFromEnviron(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	extras, err := ParseRoutes(config.ExtraRoutesStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_BRIDGE_EXTRA_ROUTES: %w", err)
	}
	config.extraRoutes = extras

	normalizeConfig(&config)

	return &config, nil
}

// normalizeConfig adjusts values to safe ranges.
func normalizeConfig(config *Config) {
	if config.SlackLookupTimeout <= 0 {
		config.SlackLookupTimeout = 3 * time.Second
	}
	if config.GChatWebhookTimeout <= 0 {
		config.GChatWebhookTimeout = 5 * time.Second
	}
	if config.ServerPort < 1 || config.ServerPort > 65535 {
		config.ServerPort = 8080
	}
	if config.ServerReadTimeout <= 0 {
		config.ServerReadTimeout = 30 * time.Second
	}
	if config.ServerWriteTimeout <= 0 {
		config.ServerWriteTimeout = 30 * time.Second
	}
	if config.ServerIdleTimeout <= 0 {
		config.ServerIdleTimeout = 120 * time.Second
	}
	if config.ServerShutdownTimeout <= 0 {
		config.ServerShutdownTimeout = 30 * time.Second
	}
}

// MissingVars returns the names of required environment variables that are
// absent or blank. An empty result means the gatekeeper precondition holds.
func (c *Config) MissingVars() []string {
	var missing []string
	if strings.TrimSpace(c.SlackSigningSecret) == "" {
		missing = append(missing, "SLACK_SIGNING_SECRET")
	}
	if strings.TrimSpace(c.SlackBotToken) == "" {
		missing = append(missing, "SLACK_BOT_TOKEN")
	}
	if strings.TrimSpace(c.GChatGeneralWebhookURL) == "" {
		missing = append(missing, "GOOGLE_CHAT_GENERAL_WEBHOOK_URL")
	}
	if strings.TrimSpace(c.GChatAnnouncementsWebhookURL) == "" {
		missing = append(missing, "GOOGLE_CHAT_ANNOUNCEMENTS_WEBHOOK_URL")
	}
	return missing
}

// Routes returns the resolved-channel-name to destination-webhook mapping.
// Matching is case-sensitive. The canonical routes take precedence over extra
// entries with the same name.
func (c *Config) Routes() map[string]string {
	routes := make(map[string]string, len(c.extraRoutes)+2)
	for name, url := range c.extraRoutes {
		routes[name] = url
	}
	if c.GChatGeneralWebhookURL != "" {
		routes[RouteGeneral] = c.GChatGeneralWebhookURL
	}
	if c.GChatAnnouncementsWebhookURL != "" {
		routes[RouteAnnouncements] = c.GChatAnnouncementsWebhookURL
	}
	return routes
}

// SetExtraRoutes replaces the extra route entries. Intended for tests and for
// callers that construct Config directly instead of via Load.
func (c *Config) SetExtraRoutes(routes map[string]string) {
	c.extraRoutes = routes
}

// ParseRoutes parses a "name=url,name=url" route list.
func ParseRoutes(input string) (map[string]string, error) {
	routes := make(map[string]string)

	if strings.TrimSpace(input) == "" {
		return routes, nil
	}

	pairs := strings.Split(input, ",")
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		keyValue := strings.SplitN(pair, "=", 2)
		if len(keyValue) != 2 {
			return nil, fmt.Errorf("invalid route entry %q", pair)
		}

		name := strings.TrimSpace(keyValue[0])
		url := strings.TrimSpace(keyValue[1])
		if name == "" {
			return nil, fmt.Errorf("route name cannot be empty in %q", pair)
		}
		if url == "" {
			return nil, fmt.Errorf("route URL cannot be empty for %q", name)
		}

		routes[name] = url
	}

	return routes, nil
}
