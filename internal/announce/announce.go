// Package announce posts the award announcement to the channel after a
// submission has been recorded.
package announce

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/victornm/kudos/internal/domain"
	"github.com/victornm/kudos/internal/event"
)

// Templates supplies announcement message templates.
type Templates interface {
	RandomTemplate(ctx context.Context) (string, error)
}

// Poster sends a message to a channel.
type Poster interface {
	PostMessage(ctx context.Context, channelID, text string) error
}

type Config struct {
	EventBus  *event.Bus
	Templates Templates
	Poster    Poster
}

type Service struct {
	templates Templates
	poster    Poster
}

func NewService(c Config) *Service {
	s := &Service{
		templates: c.Templates,
		poster:    c.Poster,
	}

	c.EventBus.Subscribe(domain.EventNameAwardsRecorded, func(ctx context.Context, e event.Event) error {
		return s.Announce(ctx, e.(domain.EventAwardsRecorded))
	})

	return s
}

// Announce renders a random template with the submission details and posts it.
func (s *Service) Announce(ctx context.Context, e domain.EventAwardsRecorded) error {
	tmpl, err := s.templates.RandomTemplate(ctx)
	if err != nil {
		return fmt.Errorf("announce: pick template: %w", err)
	}

	mentions := make([]string, 0, len(e.ReceiverIDs))
	for _, id := range e.ReceiverIDs {
		mentions = append(mentions, mention(id))
	}

	text := RenderTemplate(tmpl, map[string]string{
		"sender":         mention(e.SenderID),
		"receiver":       JoinProse(mentions),
		"award":          JoinProse(e.AwardEmojis),
		"attachmenttext": e.Note,
	})

	if err := s.poster.PostMessage(ctx, e.ChannelID, text); err != nil {
		return fmt.Errorf("announce: post message: %w", err)
	}

	slog.InfoContext(ctx, "announce: posted award announcement",
		"channel", e.ChannelID,
		"receivers", len(e.ReceiverIDs),
	)

	return nil
}

func mention(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}
