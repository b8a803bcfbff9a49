package app

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	coretelegram "github.com/m3rciful/estatebot/core/telegram"
	"github.com/m3rciful/estatebot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/estatebot/core/telegram/helpers"
	"github.com/m3rciful/estatebot/internal/access"
	"github.com/m3rciful/estatebot/internal/conversation"
	"github.com/m3rciful/estatebot/internal/domain"
)

// Callback keys. Inline buttons carry these as the unique part of their data.
const (
	cbListingSave   = "lst_save"
	cbFlowCancel    = "flow_cancel"
	cbMediaDone     = "media_done"
	cbEditPick      = "edit_pick"
	cbEditDone      = "edit_done"
	cbListingEdit   = "lst_edit"
	cbListingDelete = "lst_del"
)

func (a *App) registerCallbacks(reg *coretelegram.Registry) error {
	entries := map[string]tele.HandlerFunc{
		cbListingSave: func(c tele.Context) error {
			return a.dialog.HandleEvent(c, conversation.Signal(conversation.ControlSave))
		},
		cbFlowCancel: func(c tele.Context) error {
			return a.dialog.HandleEvent(c, conversation.Signal(conversation.ControlCancel))
		},
		cbMediaDone: func(c tele.Context) error {
			return a.dialog.HandleEvent(c, conversation.Signal(conversation.ControlFinishMedia))
		},
		cbEditPick: func(c tele.Context) error {
			field := callbacks.CallbackPayload(c)
			return a.dialog.HandleEvent(c, conversation.PickField(field))
		},
		cbEditDone: func(c tele.Context) error {
			return a.dialog.HandleEvent(c, conversation.Signal(conversation.ControlFinishEdit))
		},
		cbListingEdit:   a.handleListingEdit,
		cbListingDelete: a.handleListingDelete,
	}
	for key, h := range entries {
		if err := reg.RegisterCallback(key, h); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) handleListingEdit(c tele.Context) error {
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return renderFailure(c, &domain.ValidationError{Field: "listing", Reason: "malformed listing reference"})
	}
	user, ctx, err := a.currentUser(c)
	if err != nil {
		return renderFailure(c, err)
	}
	listing, err := a.listings.Get(ctx, id)
	if err != nil {
		return renderFailure(c, err)
	}
	return a.dialog.Start(c, func(ctx context.Context) ([]conversation.Effect, error) {
		return a.engine.StartEdit(ctx, user, listing)
	})
}

func (a *App) handleListingDelete(c tele.Context) error {
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return renderFailure(c, &domain.ValidationError{Field: "listing", Reason: "malformed listing reference"})
	}
	user, ctx, err := a.currentUser(c)
	if err != nil {
		return renderFailure(c, err)
	}
	listing, err := a.listings.Get(ctx, id)
	if err != nil {
		return renderFailure(c, err)
	}
	if !access.Authorized(user, access.ActionDeleteListing, listing) {
		return renderFailure(c, &domain.AuthorizationError{Action: string(access.ActionDeleteListing)})
	}
	if err := a.listings.Delete(ctx, id); err != nil {
		return renderFailure(c, err)
	}
	// Replace the card in place; falls back to a fresh message if the
	// original can no longer be edited.
	return tghelpers.EditOrSendMD(c, fmt.Sprintf("🗑 Listing *#%d* deleted.", id))
}
