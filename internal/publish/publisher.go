// Package publish broadcasts committed listings to a public Telegram
// channel. Publication is best-effort: a failure is reported to the caller
// and never rolls back the already persisted listing.
package publish

import (
	"context"
	"sync/atomic"
	"time"

	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/estatebot/core/logger"
	"github.com/m3rciful/estatebot/internal/domain"
)

// Gateway is the narrow interface the conversation engine depends on.
type Gateway interface {
	Publish(ctx context.Context, l *domain.Listing) error
}

// channelRecipient satisfies tele.Recipient for "@username" or numeric
// channel identifiers taken straight from configuration.
type channelRecipient string

func (r channelRecipient) Recipient() string { return string(r) }

// ChannelGateway publishes listing cards to one Telegram channel. The bot
// instance is bound after transport startup via Bind.
type ChannelGateway struct {
	channel channelRecipient
	bot     atomic.Pointer[tele.Bot]
}

// NewChannelGateway creates a gateway for the given channel identifier.
func NewChannelGateway(channel string) *ChannelGateway {
	return &ChannelGateway{channel: channelRecipient(channel)}
}

// Bind wires the running bot into the gateway.
func (g *ChannelGateway) Bind(bot *tele.Bot) {
	g.bot.Store(bot)
}

// Publish sends the rendered listing card, attaching collected media as an
// album when present. Every failure is wrapped as a domain.GatewayError.
func (g *ChannelGateway) Publish(ctx context.Context, l *domain.Listing) error {
	bot := g.bot.Load()
	if bot == nil {
		return &domain.GatewayError{Err: errNotBound}
	}

	start := time.Now()
	text := Render(l)
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown}

	var err error
	if len(l.Media) > 0 {
		album := make(tele.Album, 0, len(l.Media))
		for i, handle := range l.Media {
			photo := &tele.Photo{File: tele.File{FileID: handle}}
			if i == 0 {
				photo.Caption = text
			}
			album = append(album, photo)
		}
		_, err = bot.SendAlbum(g.channel, album, opts)
	} else {
		_, err = bot.Send(g.channel, text, opts)
	}

	if err != nil {
		logger.SVCPublish.Error("publish failed",
			slog.String("event", "publish.send"),
			slog.Int64("listing_id", l.ID),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return &domain.GatewayError{Err: err}
	}
	logger.SVCPublish.Info("listing published",
		slog.String("event", "publish.send"),
		slog.String("status", "ok"),
		slog.Int64("listing_id", l.ID),
		slog.Int("media_count", len(l.Media)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

var errNotBound = errBotNotBound{}

type errBotNotBound struct{}

func (errBotNotBound) Error() string { return "publisher not bound to a bot" }
