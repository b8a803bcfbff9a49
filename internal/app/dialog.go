package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/estatebot/core/telegram/helpers"
	"github.com/m3rciful/estatebot/core/telegram/keyboard"
	"github.com/m3rciful/estatebot/internal/conversation"
	"github.com/m3rciful/estatebot/internal/domain"
)

// Dialog bridges Telegram updates to the conversation engine. It owns the
// per-user serialization required by the engine contract: no two events for
// the same user are processed concurrently, while different users proceed
// in parallel.
type Dialog struct {
	engine *conversation.Engine

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewDialog wraps engine into a dispatch bridge.
func NewDialog(engine *conversation.Engine) *Dialog {
	return &Dialog{
		engine: engine,
		locks:  make(map[int64]*sync.Mutex),
	}
}

func (d *Dialog) lockFor(userID int64) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		d.locks[userID] = l
	}
	return l
}

// InProgress reports whether the sender has an active conversation.
// Satisfies the message router's FSM interface.
func (d *Dialog) InProgress(userID int64) bool {
	return d.engine.InProgress(userID)
}

// ManagerHandler feeds a non-command update into the engine.
// Satisfies the message router's FSM interface.
func (d *Dialog) ManagerHandler(c tele.Context) error {
	ev, ok := eventFrom(c)
	if !ok {
		return nil
	}
	return d.HandleEvent(c, ev)
}

// HandleEvent runs one engine transition under the sender's lock and
// renders the resulting effects or error.
func (d *Dialog) HandleEvent(c tele.Context, ev conversation.Event) error {
	userID := c.Sender().ID
	lock := d.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	ctx := tghelpers.BuildContext(c)
	effects, err := d.engine.Handle(ctx, userID, ev)
	if err != nil {
		return renderFailure(c, err)
	}
	return renderEffects(c, effects)
}

// Start runs a flow-opening engine call under the sender's lock.
func (d *Dialog) Start(c tele.Context, open func(ctx context.Context) ([]conversation.Effect, error)) error {
	userID := c.Sender().ID
	lock := d.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	ctx := tghelpers.BuildContext(c)
	effects, err := open(ctx)
	if err != nil {
		return renderFailure(c, err)
	}
	return renderEffects(c, effects)
}

// eventFrom translates a Telegram update into an engine event.
func eventFrom(c tele.Context) (conversation.Event, bool) {
	msg := c.Message()
	if msg == nil {
		return conversation.Event{}, false
	}
	switch {
	case msg.Photo != nil:
		return conversation.Media(msg.Photo.FileID, "photo"), true
	case msg.Video != nil:
		return conversation.Media(msg.Video.FileID, "video"), true
	case msg.Contact != nil:
		return conversation.Contact(msg.Contact.PhoneNumber), true
	case msg.Text != "":
		return conversation.Text(msg.Text), true
	}
	return conversation.Event{}, false
}

func renderEffects(c tele.Context, effects []conversation.Effect) error {
	for _, ef := range effects {
		var err error
		switch e := ef.(type) {
		case conversation.Prompt:
			err = renderPrompt(c, e)
		case conversation.Ack:
			err = tghelpers.SendMD(c, e.Text, keyboard.RemoveKeyboard())
		case conversation.Warning:
			err = tghelpers.SendMD(c, e.Text)
		case conversation.Completion:
			err = tghelpers.SendMD(c, fmt.Sprintf("🏠 Listing *#%d* is now in the catalog.", e.ListingID))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func renderPrompt(c tele.Context, p conversation.Prompt) error {
	switch p.Kind {
	case conversation.PromptChoices:
		return tghelpers.SendMD(c, p.Text, keyboard.ReplyButtons(p.Choices...))
	case conversation.PromptMedia:
		markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{{Text: "✅ Done", Unique: cbMediaDone}})
		appendCancelRow(markup)
		return tghelpers.SendMD(c, p.Text, markup)
	case conversation.PromptConfirm:
		markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{{Text: "✅ Save", Unique: cbListingSave}})
		appendCancelRow(markup)
		return tghelpers.SendMD(c, p.Text, markup)
	case conversation.PromptFieldChoice:
		buttons := make([]keyboard.InlineBtn, 0, len(p.Fields))
		for _, f := range p.Fields {
			label := conversation.FieldLabel[f]
			if label == "" {
				label = f
			}
			buttons = append(buttons, keyboard.InlineBtn{Text: label, Unique: cbEditPick, Data: f})
		}
		markup := keyboard.InlineButtonsNPerRow(buttons, 3)
		done := keyboard.InlineButtonsRows([]keyboard.InlineBtn{{Text: "✅ Done", Unique: cbEditDone}})
		markup.InlineKeyboard = append(markup.InlineKeyboard, done.InlineKeyboard...)
		return tghelpers.SendMD(c, p.Text, markup)
	case conversation.PromptContact:
		return tghelpers.SendText(c, p.Text, &tele.SendOptions{
			ReplyMarkup: keyboard.ContactRequest("📱 Share phone number"),
		})
	default:
		return tghelpers.SendMD(c, p.Text, keyboard.RemoveKeyboard())
	}
}

func appendCancelRow(markup *tele.ReplyMarkup) {
	cancel := keyboard.CancelButton(markup, cbFlowCancel)
	markup.InlineKeyboard = append(markup.InlineKeyboard, []tele.InlineButton{*cancel.Inline()})
}

// renderFailure sends the user-facing message for a typed engine error and
// propagates the error so the router summary records its code.
func renderFailure(c tele.Context, err error) error {
	if errors.Is(err, domain.ErrNoActiveSession) {
		// A repeated control signal after finalize/cancel; harmless.
		_ = tghelpers.SendText(c, "ℹ️ Nothing is in progress right now.")
		return nil
	}
	_ = tghelpers.SendText(c, failureText(err))
	return err
}

// failureText maps a typed error to its user-facing message. Every rejection
// names the field or entity it pertains to.
func failureText(err error) string {
	var (
		ve *domain.ValidationError
		ae *domain.AuthorizationError
		nf *domain.NotFoundError
		ce *domain.ConstraintError
	)
	switch {
	case errors.As(err, &ve):
		field := conversation.FieldLabel[ve.Field]
		if field == "" {
			field = ve.Field
		}
		return fmt.Sprintf("⚠️ %s: %s", field, ve.Reason)
	case errors.As(err, &ae):
		return "🚫 You do not have permission to do that."
	case errors.As(err, &nf):
		return fmt.Sprintf("🔍 The %s no longer exists.", nf.Entity)
	case errors.As(err, &ce):
		return "❌ That conflicts with an existing record."
	default:
		return "❌ Something went wrong. Please try again."
	}
}
