package identity

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

// UnknownChannel is the sentinel name returned when channel resolution fails.
// It never matches a configured route, so messages from unresolvable channels
// are dropped rather than misrouted.
const UnknownChannel = "unknown"

// userFallbackPrefix prefixes the placeholder synthesized from a user ID when
// every profile field is blank or the lookup fails.
const userFallbackPrefix = "User-"

// SlackAPI defines the subset of the Slack Web API used by the Resolver.
type SlackAPI interface {
	GetConversationInfoContext(ctx context.Context, input *slack.GetConversationInfoInput) (*slack.Channel, error)
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
}

// Resolver looks up channel and user identity via the Slack Web API. Lookups
// are best-effort enrichment: any failure degrades to a sentinel or fallback
// value and is never propagated to the caller.
type Resolver struct {
	client  SlackAPI
	timeout time.Duration
	logger  *log.Logger
}

// NewResolver constructs a Resolver with a bounded per-lookup timeout.
func NewResolver(client SlackAPI, timeout time.Duration, logger *log.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = log.New(os.Stdout, "identity ", log.LstdFlags)
	}
	return &Resolver{
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

// ChannelName resolves a channel ID to its name via conversations.info,
// returning UnknownChannel on any failure.
func (r *Resolver) ChannelName(ctx context.Context, channelID string) string {
	if channelID == "" {
		return UnknownChannel
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	channel, err := r.client.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
		ChannelID: channelID,
	})
	if err != nil {
		r.logger.Printf("conversations.info failed for %s: %v", channelID, err)
		return UnknownChannel
	}
	if channel == nil || channel.Name == "" {
		return UnknownChannel
	}
	return channel.Name
}

// UserDisplayName resolves a user ID to a human-readable name via users.info,
// preferring the profile display name, then the real name, then the account
// name, then a placeholder derived from the ID.
func (r *Resolver) UserDisplayName(ctx context.Context, userID string) string {
	if userID == "" {
		return DisplayNameFrom(userID)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	user, err := r.client.GetUserInfoContext(ctx, userID)
	if err != nil {
		r.logger.Printf("users.info failed for %s: %v", userID, err)
		return DisplayNameFrom(userID)
	}
	if user == nil {
		return DisplayNameFrom(userID)
	}
	return DisplayNameFrom(userID, user.Profile.DisplayName, user.Profile.RealName, user.Name)
}

// DisplayNameFrom returns the first non-blank candidate, falling back to a
// placeholder composed of a fixed prefix and the last four characters of the
// user ID.
func DisplayNameFrom(userID string, candidates ...string) string {
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}

	suffix := userID
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	if suffix == "" {
		suffix = UnknownChannel
	}
	return userFallbackPrefix + suffix
}
