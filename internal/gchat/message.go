package gchat

import "fmt"

// Message is a Google Chat incoming-webhook payload: plain text plus the
// legacy card format used for the bridge announcement.
type Message struct {
	Text  string `json:"text"`
	Cards []Card `json:"cards,omitempty"`
}

// Card is a rich card attached to a message.
type Card struct {
	Header   CardHeader `json:"header"`
	Sections []Section  `json:"sections"`
}

// CardHeader is the card title block.
type CardHeader struct {
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	ImageURL   string `json:"imageUrl"`
	ImageStyle string `json:"imageStyle"`
}

// Section groups widgets within a card.
type Section struct {
	Widgets []Widget `json:"widgets"`
}

// Widget is a single card widget. Only buttons are used here.
type Widget struct {
	Buttons []Button `json:"buttons,omitempty"`
}

// Button wraps a text button.
type Button struct {
	TextButton TextButton `json:"textButton"`
}

// TextButton is a clickable text button.
type TextButton struct {
	Text    string  `json:"text"`
	OnClick OnClick `json:"onClick"`
}

// OnClick holds the button click action.
type OnClick struct {
	OpenLink OpenLink `json:"openLink"`
}

// OpenLink opens a URL when the button is clicked.
type OpenLink struct {
	URL string `json:"url"`
}

// Fixed content of the bridge announcement card.
const (
	inviteTitle      = "Join Pinewood Robotics on Slack to join the conversation!"
	inviteImageURL   = "https://mp-cdn.elgato.com/media/01a11cf1-c0b5-46f0-9def-1dbb8d39d3e2/Slack-thumbnail-optimized-7a3bded9-c41e-4bdf-8ba0-5367c7dc310d.jpeg"
	inviteLinkURL    = "https://join.slack.com/t/pinewoodroboticsgroup/shared_invite/zt-3coxmq6ie-02eRfEGLq0uHFRNAhMpeZA"
	inviteButtonText = "Accept your Slack invite"
)

// NewBridgeMessage builds the fixed-shape notification for a bridged Slack
// message: "{displayName}: {text}" plus the invitation card referencing the
// source channel.
func NewBridgeMessage(displayName, text, channelName string) Message {
	return Message{
		Text: fmt.Sprintf("%s: %s", displayName, text),
		Cards: []Card{
			{
				Header: CardHeader{
					Title:      inviteTitle,
					Subtitle:   fmt.Sprintf("This is a bridged message from #%s on Slack. You should join the Slack workspace below for future access. This bridge is only temporary for now.", channelName),
					ImageURL:   inviteImageURL,
					ImageStyle: "IMAGE",
				},
				Sections: []Section{
					{
						Widgets: []Widget{
							{
								Buttons: []Button{
									{
										TextButton: TextButton{
											Text: inviteButtonText,
											OnClick: OnClick{
												OpenLink: OpenLink{URL: inviteLinkURL},
											},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}
