package app

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	coretelegram "github.com/m3rciful/estatebot/core/telegram"
	"github.com/m3rciful/estatebot/core/telegram/commands"
	"github.com/m3rciful/estatebot/core/telegram/format"
	tghelpers "github.com/m3rciful/estatebot/core/telegram/helpers"
	"github.com/m3rciful/estatebot/core/telegram/keyboard"
	"github.com/m3rciful/estatebot/internal/access"
	"github.com/m3rciful/estatebot/internal/conversation"
	"github.com/m3rciful/estatebot/internal/domain"
)

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Start the bot / register",
	})
	reg.RegisterCommand("/add", commands.Command{
		Handler:     a.handleAdd,
		Description: "Add a new listing",
	})
	reg.RegisterCommand("/my", commands.Command{
		Handler:     a.handleMy,
		Description: "Show your listings",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.handleCancel,
		Description: "Cancel the current action",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp,
		Description: "Show available commands",
	})
	reg.RegisterCommand("/listings", commands.Command{
		Handler:     a.handleListings,
		Description: "Show all listings",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/users", commands.Command{
		Handler:     a.handleUsers,
		Description: "Show registered users",
		AdminOnly:   true,
	})
}

// currentUser resolves the sender to a stored user, nil when unregistered.
func (a *App) currentUser(c tele.Context) (*domain.User, context.Context, error) {
	ctx := tghelpers.BuildContext(c)
	u, err := tghelpers.CurrentUser(ctx, a.users, c.Sender().ID)
	return u, ctx, err
}

func (a *App) handleStart(c tele.Context) error {
	user, _, err := a.currentUser(c)
	if err != nil {
		return renderFailure(c, err)
	}
	if user == nil {
		return a.dialog.Start(c, func(ctx context.Context) ([]conversation.Effect, error) {
			return a.engine.StartRegistration(ctx, c.Sender().ID)
		})
	}

	name := mdEscape(format.DerefString(user.DisplayName, "there"))
	return tghelpers.SendMD(c, fmt.Sprintf("👋 Welcome back, *%s*!\n\n%s", name, helpText(user)))
}

func (a *App) handleAdd(c tele.Context) error {
	user, _, err := a.currentUser(c)
	if err != nil {
		return renderFailure(c, err)
	}
	if user == nil {
		return tghelpers.SendText(c, "👤 Please register first with /start.")
	}
	return a.dialog.Start(c, func(ctx context.Context) ([]conversation.Effect, error) {
		return a.engine.StartCreation(ctx, user)
	})
}

func (a *App) handleMy(c tele.Context) error {
	user, ctx, err := a.currentUser(c)
	if err != nil {
		return renderFailure(c, err)
	}
	if user == nil {
		return tghelpers.SendText(c, "👤 Please register first with /start.")
	}
	if !access.Authorized(user, access.ActionViewOwnListings, nil) {
		return renderFailure(c, &domain.AuthorizationError{Action: string(access.ActionViewOwnListings)})
	}

	items, err := a.listings.ListByCreator(ctx, user.TelegramID)
	if err != nil {
		return renderFailure(c, err)
	}
	if len(items) == 0 {
		return tghelpers.SendText(c, "📭 You have no listings yet. Add one with /add.")
	}
	return a.sendListingCards(c, user, items)
}

func (a *App) handleListings(c tele.Context) error {
	user, ctx, err := a.currentUser(c)
	if err != nil {
		return renderFailure(c, err)
	}
	if !access.Authorized(user, access.ActionViewAllListings, nil) {
		return renderFailure(c, &domain.AuthorizationError{Action: string(access.ActionViewAllListings)})
	}

	items, err := a.listings.ListAll(ctx)
	if err != nil {
		return renderFailure(c, err)
	}
	if len(items) == 0 {
		return tghelpers.SendText(c, "📭 The catalog is empty.")
	}
	return a.sendListingCards(c, user, items)
}

func (a *App) handleUsers(c tele.Context) error {
	user, ctx, err := a.currentUser(c)
	if err != nil {
		return renderFailure(c, err)
	}
	if !access.Authorized(user, access.ActionViewAllUsers, nil) {
		return renderFailure(c, &domain.AuthorizationError{Action: string(access.ActionViewAllUsers)})
	}

	users, err := a.users.List(ctx)
	if err != nil {
		return renderFailure(c, err)
	}
	if len(users) == 0 {
		return tghelpers.SendText(c, "📭 Nobody has registered yet.")
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("👥 *Registered users (%d)*\n", len(users)))
	for _, u := range users {
		name := mdEscape(format.DerefString(u.DisplayName, "—"))
		phone := ""
		if p := format.DerefString(u.Phone, ""); p != "" {
			phone = " · " + mdEscape(p)
		}
		state := ""
		if !u.Active {
			state = " (inactive)"
		}
		b.WriteString(fmt.Sprintf("\n%s `%d` — %s%s%s",
			domain.RoleLabel[u.Role], u.TelegramID, name, phone, state))
	}
	return tghelpers.SendMD(c, b.String())
}

func (a *App) handleCancel(c tele.Context) error {
	return a.dialog.HandleEvent(c, conversation.Signal(conversation.ControlCancel))
}

func (a *App) handleHelp(c tele.Context) error {
	user, _, err := a.currentUser(c)
	if err != nil {
		return renderFailure(c, err)
	}
	return tghelpers.SendMD(c, helpText(user))
}

func helpText(user *domain.User) string {
	var b strings.Builder
	b.WriteString("*Commands*\n")
	b.WriteString("/add — add a new listing\n")
	b.WriteString("/my — your listings\n")
	b.WriteString("/cancel — cancel the current action\n")
	b.WriteString("/help — this message")
	if user != nil && user.IsAdmin() {
		b.WriteString("\n\n*Admin*\n")
		b.WriteString("/listings — all listings\n")
		b.WriteString("/users — registered users")
	}
	return b.String()
}

// sendListingCards sends one card per listing with the controls the viewer
// is allowed to use.
func (a *App) sendListingCards(c tele.Context, viewer *domain.User, items []domain.Listing) error {
	for i := range items {
		l := &items[i]
		if err := tghelpers.SendMD(c, listingCard(l), listingControls(viewer, l)); err != nil {
			return err
		}
	}
	return nil
}

func listingCard(l *domain.Listing) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏠 *#%d · %s*\n", l.ID, mdEscape(l.Title)))
	b.WriteString(fmt.Sprintf("📍 %s\n", mdEscape(l.Location)))
	b.WriteString(fmt.Sprintf("💰 %.2f\n", l.Price))
	b.WriteString(fmt.Sprintf("📌 %s", domain.StatusLabel[l.Status]))
	if n := len(l.Media); n > 0 {
		b.WriteString(fmt.Sprintf("\n🖼 %d attachment(s)", n))
	}
	return b.String()
}

// mdEscape neutralizes user-supplied markup before a Markdown-parse-mode send.
func mdEscape(text string) string {
	escaped, err := format.EscapeMarkdown(text, format.MarkdownV1, "")
	if err != nil {
		return text
	}
	return escaped
}

func listingControls(viewer *domain.User, l *domain.Listing) *tele.ReplyMarkup {
	payload := fmt.Sprintf("%d", l.ID)
	row := []keyboard.InlineBtn{}
	if access.Authorized(viewer, access.ActionEditListing, l) {
		row = append(row, keyboard.InlineBtn{Text: "✏️ Edit", Unique: cbListingEdit, Data: payload})
	}
	if access.Authorized(viewer, access.ActionDeleteListing, l) {
		row = append(row, keyboard.InlineBtn{Text: "🗑 Delete", Unique: cbListingDelete, Data: payload})
	}
	if len(row) == 0 {
		return nil
	}
	return keyboard.InlineButtonsRows(row)
}
