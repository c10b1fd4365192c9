package bridge

import (
	"encoding/json"
	"strings"

	"github.com/slack-go/slack/slackevents"
)

// Action is the disposition of an inbound event after parsing and filtering.
type Action int

const (
	// ActionSkip acknowledges the event without forwarding.
	ActionSkip Action = iota
	// ActionChallenge echoes the url_verification challenge verbatim.
	ActionChallenge
	// ActionForward relays the message to a destination webhook.
	ActionForward
)

// Decision is the typed outcome of routing one inbound event.
type Decision struct {
	Action    Action
	Reason    string // set for ActionSkip
	Challenge string // set for ActionChallenge

	// Set for ActionForward.
	ChannelID string
	UserID    string
	Text      string
}

func skip(reason string) Decision {
	return Decision{Action: ActionSkip, Reason: reason}
}

// decide parses the verified body and filters it down to forwardable message
// events. Malformed or irrelevant payloads are absorbed as skip decisions so
// the sender never receives a retry-provoking status code.
func decide(body []byte) Decision {
	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		return skip("unparseable payload")
	}

	switch event.Type {
	case slackevents.URLVerification:
		verification, ok := event.Data.(*slackevents.EventsAPIURLVerificationEvent)
		if !ok || verification.Challenge == "" {
			return skip("url_verification without challenge")
		}
		return Decision{Action: ActionChallenge, Challenge: verification.Challenge}

	case slackevents.CallbackEvent:
		message, ok := event.InnerEvent.Data.(*slackevents.MessageEvent)
		if !ok {
			return skip("not a message event")
		}
		// A subtype marks edits, deletions, joins and bot messages, none of
		// which are bridged.
		if message.SubType != "" {
			return skip("message subtype " + message.SubType)
		}
		if message.User == "" {
			return skip("missing user id")
		}
		if strings.TrimSpace(message.Text) == "" {
			return skip("empty message text")
		}
		return Decision{
			Action:    ActionForward,
			ChannelID: message.Channel,
			UserID:    message.User,
			Text:      message.Text,
		}

	default:
		return skip("unsupported event type " + event.Type)
	}
}
