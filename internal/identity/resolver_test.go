package identity

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/require"
)

type fakeSlackAPI struct {
	channel    *slack.Channel
	channelErr error
	user       *slack.User
	userErr    error

	channelCalls int
	userCalls    int
}

func (f *fakeSlackAPI) GetConversationInfoContext(ctx context.Context, input *slack.GetConversationInfoInput) (*slack.Channel, error) {
	f.channelCalls++
	return f.channel, f.channelErr
}

func (f *fakeSlackAPI) GetUserInfoContext(ctx context.Context, user string) (*slack.User, error) {
	f.userCalls++
	return f.user, f.userErr
}

func namedChannel(name string) *slack.Channel {
	ch := &slack.Channel{}
	ch.Name = name
	return ch
}

func testResolver(api SlackAPI) *Resolver {
	return NewResolver(api, time.Second, log.New(io.Discard, "", 0))
}

func TestChannelName(t *testing.T) {
	t.Run("returns resolved name", func(t *testing.T) {
		api := &fakeSlackAPI{channel: namedChannel("general")}
		require.Equal(t, "general", testResolver(api).ChannelName(context.Background(), "C123"))
		require.Equal(t, 1, api.channelCalls)
	})

	t.Run("lookup failure degrades to sentinel", func(t *testing.T) {
		api := &fakeSlackAPI{channelErr: errors.New("channel_not_found")}
		require.Equal(t, UnknownChannel, testResolver(api).ChannelName(context.Background(), "C123"))
	})

	t.Run("blank name degrades to sentinel", func(t *testing.T) {
		api := &fakeSlackAPI{channel: namedChannel("")}
		require.Equal(t, UnknownChannel, testResolver(api).ChannelName(context.Background(), "C123"))
	})

	t.Run("empty id skips the lookup", func(t *testing.T) {
		api := &fakeSlackAPI{}
		require.Equal(t, UnknownChannel, testResolver(api).ChannelName(context.Background(), ""))
		require.Zero(t, api.channelCalls)
	})
}

func TestUserDisplayName(t *testing.T) {
	userWith := func(display, real, name string) *slack.User {
		u := &slack.User{Name: name}
		u.Profile.DisplayName = display
		u.Profile.RealName = real
		return u
	}

	t.Run("prefers display name", func(t *testing.T) {
		api := &fakeSlackAPI{user: userWith("disp", "Real Name", "account")}
		require.Equal(t, "disp", testResolver(api).UserDisplayName(context.Background(), "U12345678"))
	})

	t.Run("falls back to real name", func(t *testing.T) {
		api := &fakeSlackAPI{user: userWith("", "Real Name", "account")}
		require.Equal(t, "Real Name", testResolver(api).UserDisplayName(context.Background(), "U12345678"))
	})

	t.Run("falls back to account name", func(t *testing.T) {
		api := &fakeSlackAPI{user: userWith("  ", "", "account")}
		require.Equal(t, "account", testResolver(api).UserDisplayName(context.Background(), "U12345678"))
	})

	t.Run("synthesizes placeholder when profile is empty", func(t *testing.T) {
		api := &fakeSlackAPI{user: userWith("", "", "")}
		require.Equal(t, "User-5678", testResolver(api).UserDisplayName(context.Background(), "U12345678"))
	})

	t.Run("lookup failure degrades to placeholder", func(t *testing.T) {
		api := &fakeSlackAPI{userErr: errors.New("user_not_found")}
		require.Equal(t, "User-5678", testResolver(api).UserDisplayName(context.Background(), "U12345678"))
	})
}

func TestDisplayNameFrom(t *testing.T) {
	require.Equal(t, "a", DisplayNameFrom("U12345678", "a", "b", "c"))
	require.Equal(t, "b", DisplayNameFrom("U12345678", "", "b", "c"))
	require.Equal(t, "c", DisplayNameFrom("U12345678", "", "   ", "c"))
	require.Equal(t, "User-5678", DisplayNameFrom("U12345678"))
	require.Equal(t, "User-U12", DisplayNameFrom("U12"))
	require.Equal(t, "User-unknown", DisplayNameFrom(""))
}
