package Notifications

import (
	"context"

	"github.com/Barrelito/sam-a-sub001/Logging"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
)

// Poster posts a text message to a channel.
type Poster interface {
	Post(ctx context.Context, text string) error
}

// SlackPoster posts to a single configured channel
type SlackPoster struct {
	client  *slack.Client
	channel string
}

func NewSlackPoster(token, channel string, opts ...slack.Option) *SlackPoster {
	return &SlackPoster{
		client:  slack.New(token, opts...),
		channel: channel,
	}
}

func (s *SlackPoster) Post(ctx context.Context, text string) error {
	_, ts, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return errors.Wrapf(err, "post to slack channel %s", s.channel)
	}
	Logging.GetLogger().WithField("ts", ts).Debug("slack message posted")
	return nil
}
