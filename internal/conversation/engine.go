// Package conversation implements the multi-step data-collection state
// machine behind the listing bot: registration, listing creation, and
// field-level editing. The engine is a synchronous function of
// (session, event) -> (session', effects); the dispatch shell owns per-user
// serialization and renders the returned effects.
package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"log/slog"

	"github.com/m3rciful/estatebot/core/logger"
	"github.com/m3rciful/estatebot/core/telegram/format"
	"github.com/m3rciful/estatebot/internal/access"
	"github.com/m3rciful/estatebot/internal/domain"
)

// UserWriter is the slice of the user repository the engine needs to
// complete a registration.
type UserWriter interface {
	Create(ctx context.Context, u *domain.User) error
}

// ListingWriter is the slice of the listing repository the engine needs:
// one atomic insert at finalize, and one targeted update per edited field.
type ListingWriter interface {
	Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error)
	UpdateField(ctx context.Context, id int64, field string, value any) error
}

// Gateway broadcasts a committed listing. Failures are surfaced as warnings
// and never undo the commit.
type Gateway interface {
	Publish(ctx context.Context, l *domain.Listing) error
}

// Options wires the engine's collaborators.
type Options struct {
	Store    Store
	Users    UserWriter
	Listings ListingWriter
	Gateway  Gateway
	// AdminIDs is the static allow-list consulted when assigning a role at
	// registration time.
	AdminIDs []int64
}

// Engine drives conversation state transitions. It performs no internal
// concurrency and never panics across its API; every failure is a typed
// error for the dispatch shell to render.
type Engine struct {
	store    Store
	users    UserWriter
	listings ListingWriter
	gateway  Gateway
	admins   map[int64]struct{}
}

// NewEngine constructs an engine. Store must not be nil.
func NewEngine(opts Options) *Engine {
	admins := make(map[int64]struct{}, len(opts.AdminIDs))
	for _, id := range opts.AdminIDs {
		admins[id] = struct{}{}
	}
	return &Engine{
		store:    opts.Store,
		users:    opts.Users,
		listings: opts.Listings,
		gateway:  opts.Gateway,
		admins:   admins,
	}
}

// InProgress reports whether userID has an active conversation.
func (e *Engine) InProgress(userID int64) bool {
	return e.store.Active(userID)
}

// StartRegistration opens the registration flow for an unregistered user.
func (e *Engine) StartRegistration(ctx context.Context, userID int64) ([]Effect, error) {
	e.store.Put(userID, NewSession(ModeRegistering, StepName))
	logger.Debug(ctx, "conversation", "flow.start",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("mode", string(ModeRegistering)),
	)
	return []Effect{Prompt{Kind: PromptPlain, Text: "👋 Welcome! Let's get you registered.\n\nWhat is your name?"}}, nil
}

// StartCreation opens the listing creation flow.
func (e *Engine) StartCreation(ctx context.Context, user *domain.User) ([]Effect, error) {
	if !access.Authorized(user, access.ActionCreateListing, nil) {
		return nil, &domain.AuthorizationError{Action: string(access.ActionCreateListing)}
	}
	e.store.Put(user.TelegramID, NewSession(ModeCreating, StepLocation))
	logger.Debug(ctx, "conversation", "flow.start",
		slog.String("status", "ok"),
		slog.Int64("user_id", user.TelegramID),
		slog.String("mode", string(ModeCreating)),
	)
	return []Effect{stepPrompt(StepLocation)}, nil
}

// StartEdit opens the field-edit flow against listing. The ownership/role
// check happens here, before any session state is created.
func (e *Engine) StartEdit(ctx context.Context, user *domain.User, listing *domain.Listing) ([]Effect, error) {
	if !access.Authorized(user, access.ActionEditListing, listing) {
		return nil, &domain.AuthorizationError{Action: string(access.ActionEditListing)}
	}
	sess := NewSession(ModeEditing, StepFieldChoice)
	sess.TargetListing = listing.ID
	e.store.Put(user.TelegramID, sess)
	logger.Debug(ctx, "conversation", "flow.start",
		slog.String("status", "ok"),
		slog.Int64("user_id", user.TelegramID),
		slog.String("mode", string(ModeEditing)),
		slog.Int64("listing_id", listing.ID),
	)
	return []Effect{fieldChoicePrompt(listing.ID)}, nil
}

// Handle applies one inbound event to the session keyed by userID.
// Authorization happened when the flow was started; a missing or idle
// session yields domain.ErrNoActiveSession, which makes repeated control
// signals (e.g. a second "save") safe.
func (e *Engine) Handle(ctx context.Context, userID int64, ev Event) ([]Effect, error) {
	sess, ok := e.store.Get(userID)
	if !ok || sess.Mode == ModeIdle {
		return nil, domain.ErrNoActiveSession
	}

	// Cancel is honored synchronously from any non-terminal state and
	// performs no repository interaction.
	if ev.Kind == EventControl && ev.Control == ControlCancel {
		e.store.Delete(userID)
		logger.Debug(ctx, "conversation", "flow.cancel",
			slog.String("status", "ok"),
			slog.Int64("user_id", userID),
			slog.String("mode", string(sess.Mode)),
			slog.String("step", string(sess.Step)),
		)
		return []Effect{Ack{Text: "❌ Cancelled."}}, nil
	}

	switch sess.Mode {
	case ModeRegistering:
		return e.handleRegistration(ctx, userID, sess, ev)
	case ModeCreating:
		return e.handleCreation(ctx, userID, sess, ev)
	case ModeEditing:
		return e.handleEdit(ctx, userID, sess, ev)
	}
	return nil, domain.ErrNoActiveSession
}

func (e *Engine) handleRegistration(ctx context.Context, userID int64, sess *Session, ev Event) ([]Effect, error) {
	switch sess.Step {
	case StepName:
		if ev.Kind != EventText {
			return nil, &domain.ValidationError{Field: "name", Reason: "send your name as text"}
		}
		name := strings.TrimSpace(ev.Text)
		if name == "" {
			return nil, &domain.ValidationError{Field: "name", Reason: "value must not be empty"}
		}
		sess.Fields["name"] = name
		sess.Step = StepPhone
		e.store.Put(userID, sess)
		return []Effect{Prompt{
			Kind: PromptContact,
			Text: "📱 Now share your phone number using the button below:",
		}}, nil

	case StepPhone:
		if ev.Kind != EventContact {
			return nil, &domain.ValidationError{Field: "phone", Reason: "use the button to share your phone number"}
		}
		role := domain.RoleUser
		if _, ok := e.admins[userID]; ok {
			role = domain.RoleAdmin
		}
		name := sess.Fields["name"]
		phone := ev.Phone
		u := &domain.User{
			TelegramID:  userID,
			DisplayName: &name,
			Phone:       &phone,
			Role:        role,
			Active:      true,
		}
		if err := e.users.Create(ctx, u); err != nil {
			// A duplicate-registration race rolls back the write; the
			// session is cleared so the user is not stuck mid-flow.
			e.store.Delete(userID)
			return nil, err
		}
		e.store.Delete(userID)
		logger.Info(ctx, "conversation", "registration.done",
			slog.String("status", "ok"),
			slog.Int64("user_id", userID),
			slog.String("role", string(role)),
		)
		return []Effect{Ack{Text: fmt.Sprintf("✅ Registration complete! You are signed up as %s.", domain.RoleLabel[role])}}, nil
	}
	return nil, domain.ErrNoActiveSession
}

func (e *Engine) handleCreation(ctx context.Context, userID int64, sess *Session, ev Event) ([]Effect, error) {
	switch sess.Step {
	case StepMedia:
		switch {
		case ev.Kind == EventMedia:
			sess.Media = append(sess.Media, ev.Media)
			e.store.Put(userID, sess)
			return []Effect{Ack{
				Text: fmt.Sprintf("📸 Added (%d total). Send more or press Done.", len(sess.Media)),
			}}, nil
		case ev.Kind == EventControl && ev.Control == ControlFinishMedia:
			return e.advanceCreation(ctx, userID, sess)
		default:
			// Collected media is kept; the step does not change.
			return nil, &domain.ValidationError{Field: FieldMedia, Reason: "send a photo/video, or press Done to continue"}
		}

	case StepConfirm:
		if ev.Kind == EventControl && ev.Control == ControlSave {
			return e.finalizeCreation(ctx, userID, sess)
		}
		return nil, &domain.ValidationError{Field: "confirmation", Reason: "press Save or Cancel"}

	default:
		field, ok := stepField[sess.Step]
		if !ok {
			return nil, domain.ErrNoActiveSession
		}
		if ev.Kind != EventText {
			return nil, &domain.ValidationError{Field: field, Reason: "send the value as text"}
		}
		spec, _ := Field(field)
		value, err := spec.Validate(ev.Text)
		if err != nil {
			return nil, err
		}
		sess.Fields[field] = value
		return e.advanceCreation(ctx, userID, sess)
	}
}

// advanceCreation moves the session to the step after the current one and
// returns its prompt. Entering the confirmation step produces the preview.
func (e *Engine) advanceCreation(ctx context.Context, userID int64, sess *Session) ([]Effect, error) {
	next := nextStep(sess.Step)
	sess.Step = next
	e.store.Put(userID, sess)
	logger.Debug(ctx, "conversation", "step.advance",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("step", string(next)),
	)
	if next == StepConfirm {
		return []Effect{Prompt{Kind: PromptConfirm, Text: previewText(sess)}}, nil
	}
	return []Effect{stepPrompt(next)}, nil
}

func (e *Engine) finalizeCreation(ctx context.Context, userID int64, sess *Session) ([]Effect, error) {
	listing := buildListing(userID, sess)

	created, err := e.listings.Create(ctx, listing)
	if err != nil {
		// Single atomic insert: nothing was half-written. The session is
		// cleared so the user does not get stuck on a broken confirmation.
		e.store.Delete(userID)
		logger.Error(ctx, "conversation", "finalize.fail",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	e.store.Delete(userID)
	logger.Info(ctx, "conversation", "finalize.done",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.Int64("listing_id", created.ID),
	)

	effects := []Effect{
		Ack{Text: "✅ Listing saved!"},
		Completion{ListingID: created.ID},
	}

	// Best-effort broadcast after the durable write. A failure is reported
	// but never rolls back the committed listing.
	if e.gateway != nil {
		if pubErr := e.gateway.Publish(ctx, created); pubErr != nil {
			logger.Warn(ctx, "conversation", "publish.fail",
				slog.String("status", "fail"),
				slog.Int64("listing_id", created.ID),
				slog.String("err", pubErr.Error()),
			)
			effects = append(effects, Warning{
				Text: "⚠️ The listing was saved but could not be published to the channel.",
			})
		}
	}
	return effects, nil
}

func (e *Engine) handleEdit(ctx context.Context, userID int64, sess *Session, ev Event) ([]Effect, error) {
	if ev.Kind == EventControl && ev.Control == ControlFinishEdit {
		e.store.Delete(userID)
		return []Effect{Ack{Text: "✅ Editing finished."}}, nil
	}

	switch sess.Step {
	case StepFieldChoice:
		if ev.Kind != EventControl || ev.Control != ControlPickField {
			return nil, &domain.ValidationError{Field: "field", Reason: "pick a field to edit, or press Done"}
		}
		if !Editable(ev.Field) {
			return nil, &domain.ValidationError{Field: ev.Field, Reason: "this field cannot be edited"}
		}
		sess.PendingField = ev.Field
		sess.Step = StepFieldValue
		e.store.Put(userID, sess)
		spec, _ := Field(ev.Field)
		kind := PromptPlain
		if len(spec.Choices) > 0 {
			kind = PromptChoices
		}
		return []Effect{Prompt{Kind: kind, Text: spec.Prompt, Choices: spec.Choices}}, nil

	case StepFieldValue:
		if ev.Kind != EventText {
			return nil, &domain.ValidationError{Field: sess.PendingField, Reason: "send the new value as text"}
		}
		spec, ok := Field(sess.PendingField)
		if !ok {
			return nil, domain.ErrNoActiveSession
		}
		value, err := spec.Validate(ev.Text)
		if err != nil {
			return nil, err
		}
		// One field per round-trip: the edit is durably saved before the
		// field-choice menu is shown again.
		if err := e.listings.UpdateField(ctx, sess.TargetListing, sess.PendingField, typedFieldValue(sess.PendingField, value)); err != nil {
			if domain.IsNotFound(err) {
				e.store.Delete(userID)
			}
			return nil, err
		}
		logger.Info(ctx, "conversation", "edit.field",
			slog.String("status", "ok"),
			slog.Int64("user_id", userID),
			slog.Int64("listing_id", sess.TargetListing),
			slog.String("field", sess.PendingField),
		)
		edited := sess.PendingField
		sess.PendingField = ""
		sess.Step = StepFieldChoice
		e.store.Put(userID, sess)
		return []Effect{
			Ack{Text: fmt.Sprintf("✅ %s updated.", edited)},
			fieldChoicePrompt(sess.TargetListing),
		}, nil
	}
	return nil, domain.ErrNoActiveSession
}

func nextStep(current Step) Step {
	for i, s := range creationSteps {
		if s == current && i+1 < len(creationSteps) {
			return creationSteps[i+1]
		}
	}
	return StepConfirm
}

func stepPrompt(step Step) Prompt {
	if step == StepMedia {
		return Prompt{
			Kind: PromptMedia,
			Text: "🖼 Send photos or videos of the property (optional). Press Done when finished.",
		}
	}
	field := stepField[step]
	spec, _ := Field(field)
	if len(spec.Choices) > 0 {
		return Prompt{Kind: PromptChoices, Text: spec.Prompt, Choices: spec.Choices}
	}
	return Prompt{Kind: PromptPlain, Text: spec.Prompt}
}

func fieldChoicePrompt(listingID int64) Prompt {
	return Prompt{
		Kind:   PromptFieldChoice,
		Text:   fmt.Sprintf("✏️ Editing listing #%d. Pick a field to change:", listingID),
		Fields: EditableFields(),
	}
}

func previewText(sess *Session) string {
	var b strings.Builder
	b.WriteString("*Listing preview:*\n")
	write := func(icon, field string) {
		if v := sess.Fields[field]; v != "" {
			b.WriteString(icon)
			b.WriteString(" ")
			b.WriteString(escapeMD(v))
			b.WriteString("\n")
		}
	}
	write("📍", FieldLocation)
	write("🛏", FieldDescription)
	write("🧱", FieldCondition)
	write("🚗", FieldParking)
	write("🚽", FieldBathrooms)
	write("✏️", FieldAdditions)
	if v := sess.Fields[FieldPrice]; v != "" {
		b.WriteString("💰 *")
		b.WriteString(v)
		b.WriteString("*\n")
	}
	b.WriteString(fmt.Sprintf("🖼 Media: %d", len(sess.Media)))
	return b.String()
}

// escapeMD neutralizes user-supplied markup so the preview survives a
// Markdown-parse-mode send.
func escapeMD(text string) string {
	escaped, err := format.EscapeMarkdown(text, format.MarkdownV1, "")
	if err != nil {
		return text
	}
	return escaped
}

// buildListing assembles the listing from validated session data. Numeric
// conversions cannot fail here because the validators already accepted the
// values. The title is derived from the location at creation time and stays
// editable through the edit flow.
func buildListing(userID int64, sess *Session) *domain.Listing {
	bathrooms, _ := strconv.Atoi(sess.Fields[FieldBathrooms])
	price, _ := strconv.ParseFloat(sess.Fields[FieldPrice], 64)
	media := make([]string, len(sess.Media))
	copy(media, sess.Media)
	return &domain.Listing{
		Title:       sess.Fields[FieldLocation],
		Description: sess.Fields[FieldDescription],
		Location:    sess.Fields[FieldLocation],
		Condition:   sess.Fields[FieldCondition],
		Parking:     sess.Fields[FieldParking],
		Bathrooms:   bathrooms,
		Additions:   sess.Fields[FieldAdditions],
		Price:       price,
		Media:       media,
		Status:      domain.StatusAvailable,
		CreatedBy:   userID,
	}
}

// typedFieldValue converts a validated canonical value into the type the
// repository persists for the given field.
func typedFieldValue(field, value string) any {
	switch field {
	case FieldBathrooms:
		n, _ := strconv.Atoi(value)
		return n
	case FieldPrice:
		p, _ := strconv.ParseFloat(value, 64)
		return p
	default:
		return value
	}
}
