package app

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/estatebot/core/bootstrap"
	corecmd "github.com/m3rciful/estatebot/core/cmd"
	"github.com/m3rciful/estatebot/core/logger"
	coretelegram "github.com/m3rciful/estatebot/core/telegram"
	tghelpers "github.com/m3rciful/estatebot/core/telegram/helpers"
	"github.com/m3rciful/estatebot/core/telegram/router"
	"github.com/m3rciful/estatebot/internal/conversation"
	"github.com/m3rciful/estatebot/internal/publish"
	"github.com/m3rciful/estatebot/internal/storage"
)

// App holds the assembled listing bot: repositories, the conversation
// engine, the publication gateway, and the dispatch bridge.
type App struct {
	cfg *Config
	db  *sqlx.DB

	users    *storage.UserRepository
	listings *storage.ListingRepository
	gateway  *publish.ChannelGateway
	engine   *conversation.Engine
	dialog   *Dialog
}

// Bootstrap initializes logging, the database, and migrations, then wires
// the application graph.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	users := storage.NewUserRepository(res.DB)
	listings := storage.NewListingRepository(res.DB)
	gateway := publish.NewChannelGateway(cfg.Bot.Channel)

	engine := conversation.NewEngine(conversation.Options{
		Store:    conversation.NewMemoryStore(),
		Users:    users,
		Listings: listings,
		Gateway:  gateway,
		AdminIDs: cfg.Bot.AdminIDs,
	})

	return &App{
		cfg:      cfg,
		db:       res.DB,
		users:    users,
		listings: listings,
		gateway:  gateway,
		engine:   engine,
		dialog:   NewDialog(engine),
	}, nil
}

// TelegramRunOptions assembles the registry, routes, and middlewares for
// the bot runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)
	if err := a.registerCallbacks(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}
	reg.SetTextFallback(a.handleUnknownText)

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		IsAdmin:       a.isAdmin,
		OnAdminReject: a.handleAdminReject,
	})
	routes = append(routes, router.MessageRoutes(a.dialog, reg, router.MessageOptions{
		UnknownText:  a.handleUnknownText,
		UnknownMedia: a.handleUnknownMedia,
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.gateway.Bind(rt.Bot)
			logger.SVCPublish.Info("publication channel bound",
				slog.String("event", "bind"),
				slog.String("channel", a.cfg.Bot.Channel),
			)
			return nil
		},
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			return a.db.Close()
		},
	}, nil
}

// isAdmin answers the command-router admin check. The static allow-list
// covers operators that have not registered yet; everyone else is resolved
// through their stored role.
func (a *App) isAdmin(userID int64) bool {
	if a.cfg.IsAdminID(userID) {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	u, err := a.users.GetUserByTelegramID(ctx, userID)
	if err != nil || u == nil {
		return false
	}
	return u.Active && u.IsAdmin()
}

func (a *App) handleAdminReject(c tele.Context) error {
	return tghelpers.SendText(c, "🚫 This command is for administrators only.")
}

func (a *App) handleUnknownText(c tele.Context) error {
	return tghelpers.SendText(c, "🤔 I did not understand that. Try /help.")
}

func (a *App) handleUnknownMedia(c tele.Context) error {
	return tghelpers.SendText(c, "📎 Attachments are only accepted while adding a listing. Try /add.")
}
