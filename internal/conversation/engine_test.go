package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/m3rciful/estatebot/internal/domain"
)

type fakeUsers struct {
	created []domain.User
	err     error
}

func (f *fakeUsers) Create(ctx context.Context, u *domain.User) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, *u)
	return nil
}

type fakeListings struct {
	created   []domain.Listing
	updates   []fieldUpdate
	createErr error
	updateErr error
	nextID    int64
}

type fieldUpdate struct {
	id    int64
	field string
	value any
}

func (f *fakeListings) Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	out := *l
	out.ID = f.nextID
	f.created = append(f.created, out)
	return &out, nil
}

func (f *fakeListings) UpdateField(ctx context.Context, id int64, field string, value any) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, fieldUpdate{id: id, field: field, value: value})
	return nil
}

type fakeGateway struct {
	published []int64
	err       error
}

func (f *fakeGateway) Publish(ctx context.Context, l *domain.Listing) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, l.ID)
	return nil
}

type harness struct {
	engine   *Engine
	store    Store
	users    *fakeUsers
	listings *fakeListings
	gateway  *fakeGateway
}

func newHarness(adminIDs ...int64) *harness {
	h := &harness{
		store:    NewMemoryStore(),
		users:    &fakeUsers{},
		listings: &fakeListings{},
		gateway:  &fakeGateway{},
	}
	h.engine = NewEngine(Options{
		Store:    h.store,
		Users:    h.users,
		Listings: h.listings,
		Gateway:  h.gateway,
		AdminIDs: adminIDs,
	})
	return h
}

func activeUser(id int64) *domain.User {
	return &domain.User{TelegramID: id, Role: domain.RoleUser, Active: true}
}

func adminUser(id int64) *domain.User {
	return &domain.User{TelegramID: id, Role: domain.RoleAdmin, Active: true}
}

// driveToConfirm walks a fresh creation session up to the confirmation step.
func driveToConfirm(t *testing.T, h *harness, userID int64, media []string) {
	t.Helper()
	ctx := context.Background()
	if _, err := h.engine.StartCreation(ctx, activeUser(userID)); err != nil {
		t.Fatalf("start creation: %v", err)
	}
	steps := []Event{
		Text("Riverside District, 12"),
	}
	for _, m := range media {
		steps = append(steps, Media(m, "photo"))
	}
	steps = append(steps,
		Signal(ControlFinishMedia),
		Text("3 rooms, floor 4 of 9"),
		Text("Renovated"),
		Text("Underground"),
		Text("2"),
		Text("Balcony, storage room"),
		Text("125000.50"),
	)
	for i, ev := range steps {
		if _, err := h.engine.Handle(ctx, userID, ev); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
}

func TestCreationFlowPersistsAllFields(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	const userID int64 = 100

	driveToConfirm(t, h, userID, []string{"file-a", "file-b"})

	effects, err := h.engine.Handle(ctx, userID, Signal(ControlSave))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if len(h.listings.created) != 1 {
		t.Fatalf("expected 1 created listing, got %d", len(h.listings.created))
	}
	l := h.listings.created[0]
	if l.Location != "Riverside District, 12" {
		t.Errorf("location = %q", l.Location)
	}
	if l.Title != l.Location {
		t.Errorf("title = %q, expected location-derived", l.Title)
	}
	if l.Description != "3 rooms, floor 4 of 9" {
		t.Errorf("description = %q", l.Description)
	}
	if l.Condition != "Renovated" || l.Parking != "Underground" {
		t.Errorf("condition/parking = %q/%q", l.Condition, l.Parking)
	}
	if l.Bathrooms != 2 {
		t.Errorf("bathrooms = %d", l.Bathrooms)
	}
	if l.Additions != "Balcony, storage room" {
		t.Errorf("additions = %q", l.Additions)
	}
	if l.Price != 125000.50 {
		t.Errorf("price = %v", l.Price)
	}
	if len(l.Media) != 2 || l.Media[0] != "file-a" || l.Media[1] != "file-b" {
		t.Errorf("media = %v", l.Media)
	}
	if l.Status != domain.StatusAvailable {
		t.Errorf("status = %q", l.Status)
	}
	if l.CreatedBy != userID {
		t.Errorf("created_by = %d", l.CreatedBy)
	}

	var gotCompletion bool
	for _, ef := range effects {
		if c, ok := ef.(Completion); ok {
			gotCompletion = true
			if c.ListingID != l.ID {
				t.Errorf("completion id = %d, want %d", c.ListingID, l.ID)
			}
		}
	}
	if !gotCompletion {
		t.Error("expected a Completion effect")
	}
	if len(h.gateway.published) != 1 {
		t.Errorf("expected 1 publication, got %d", len(h.gateway.published))
	}
	if h.store.Active(userID) {
		t.Error("session should be cleared after save")
	}
}

func TestCreationInvalidInputKeepsState(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	const userID int64 = 101

	if _, err := h.engine.StartCreation(ctx, activeUser(userID)); err != nil {
		t.Fatalf("start: %v", err)
	}
	walk := []Event{
		Text("Old Town 5"),
		Signal(ControlFinishMedia),
		Text("2 rooms"),
		Text("Renovated"),
		Text("None"),
	}
	for _, ev := range walk {
		if _, err := h.engine.Handle(ctx, userID, ev); err != nil {
			t.Fatalf("walk: %v", err)
		}
	}

	_, err := h.engine.Handle(ctx, userID, Text("abc"))
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	sess, ok := h.store.Get(userID)
	if !ok || sess.Step != StepBathrooms {
		t.Fatalf("step should stay at bathrooms, got %v", sess.Step)
	}
	if _, found := sess.Fields[FieldBathrooms]; found {
		t.Error("rejected value must not be recorded")
	}

	// Valid retry proceeds normally.
	if _, err := h.engine.Handle(ctx, userID, Text("2")); err != nil {
		t.Fatalf("retry: %v", err)
	}
	sess, _ = h.store.Get(userID)
	if sess.Step != StepAdditions {
		t.Fatalf("step = %v after valid retry", sess.Step)
	}
}

func TestCancelDiscardsEverything(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	const userID int64 = 102

	driveToConfirm(t, h, userID, []string{"file-a"})

	effects, err := h.engine.Handle(ctx, userID, Signal(ControlCancel))
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(effects) != 1 {
		t.Fatalf("effects = %d", len(effects))
	}
	if len(h.listings.created) != 0 {
		t.Errorf("cancel must not write to the repository, got %d creates", len(h.listings.created))
	}
	if len(h.gateway.published) != 0 {
		t.Error("cancel must not publish")
	}
	if h.store.Active(userID) {
		t.Error("session must be gone after cancel")
	}

	_, err = h.engine.Handle(ctx, userID, Text("anything"))
	if !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("expected no-active-session after cancel, got %v", err)
	}
}

func TestMediaStepAcceptsZeroOrMore(t *testing.T) {
	for _, count := range []int{0, 1, 4} {
		t.Run(fmt.Sprintf("media_%d", count), func(t *testing.T) {
			h := newHarness()
			ctx := context.Background()
			const userID int64 = 103

			if _, err := h.engine.StartCreation(ctx, activeUser(userID)); err != nil {
				t.Fatalf("start: %v", err)
			}
			if _, err := h.engine.Handle(ctx, userID, Text("Somewhere 1")); err != nil {
				t.Fatalf("location: %v", err)
			}
			for i := 0; i < count; i++ {
				if _, err := h.engine.Handle(ctx, userID, Media(fmt.Sprintf("f%d", i), "photo")); err != nil {
					t.Fatalf("media %d: %v", i, err)
				}
			}
			effects, err := h.engine.Handle(ctx, userID, Signal(ControlFinishMedia))
			if err != nil {
				t.Fatalf("finish media: %v", err)
			}
			sess, _ := h.store.Get(userID)
			if sess.Step != StepDescription {
				t.Fatalf("step = %v after finish_media", sess.Step)
			}
			if len(sess.Media) != count {
				t.Fatalf("media kept = %d, want %d", len(sess.Media), count)
			}
			if len(effects) != 1 {
				t.Fatalf("expected single prompt effect, got %d", len(effects))
			}
		})
	}
}

func TestMediaStepRejectsTextWithoutLosingMedia(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	const userID int64 = 104

	if _, err := h.engine.StartCreation(ctx, activeUser(userID)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := h.engine.Handle(ctx, userID, Text("Somewhere 1")); err != nil {
		t.Fatalf("location: %v", err)
	}
	if _, err := h.engine.Handle(ctx, userID, Media("f1", "photo")); err != nil {
		t.Fatalf("media: %v", err)
	}

	_, err := h.engine.Handle(ctx, userID, Text("is that enough?"))
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	sess, _ := h.store.Get(userID)
	if sess.Step != StepMedia || len(sess.Media) != 1 {
		t.Fatalf("media step state lost: step=%v media=%d", sess.Step, len(sess.Media))
	}
}

func TestDoubleSaveCreatesOnce(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	const userID int64 = 105

	driveToConfirm(t, h, userID, nil)

	if _, err := h.engine.Handle(ctx, userID, Signal(ControlSave)); err != nil {
		t.Fatalf("first save: %v", err)
	}
	_, err := h.engine.Handle(ctx, userID, Signal(ControlSave))
	if !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("second save should report no active session, got %v", err)
	}
	if len(h.listings.created) != 1 {
		t.Fatalf("expected exactly 1 create, got %d", len(h.listings.created))
	}
}

func TestConfirmStepRejectsText(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	const userID int64 = 106

	driveToConfirm(t, h, userID, nil)

	_, err := h.engine.Handle(ctx, userID, Text("yes"))
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error at confirmation, got %v", err)
	}
	if len(h.listings.created) != 0 {
		t.Error("text at confirmation must not finalize")
	}
	sess, _ := h.store.Get(userID)
	if sess.Step != StepConfirm {
		t.Fatalf("step = %v", sess.Step)
	}
}

func TestGatewayFailureKeepsListing(t *testing.T) {
	h := newHarness()
	h.gateway.err = &domain.GatewayError{Err: errors.New("channel unreachable")}
	ctx := context.Background()
	const userID int64 = 107

	driveToConfirm(t, h, userID, nil)

	effects, err := h.engine.Handle(ctx, userID, Signal(ControlSave))
	if err != nil {
		t.Fatalf("save must succeed despite gateway failure: %v", err)
	}
	if len(h.listings.created) != 1 {
		t.Fatalf("listing must be committed, got %d creates", len(h.listings.created))
	}
	var warned bool
	for _, ef := range effects {
		if _, ok := ef.(Warning); ok {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a Warning effect for the failed publication")
	}
}

func TestEditUpdatesFieldImmediately(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	const userID int64 = 108
	listing := &domain.Listing{ID: 42, CreatedBy: userID}

	if _, err := h.engine.StartEdit(ctx, activeUser(userID), listing); err != nil {
		t.Fatalf("start edit: %v", err)
	}
	if _, err := h.engine.Handle(ctx, userID, PickField(FieldPrice)); err != nil {
		t.Fatalf("pick field: %v", err)
	}
	effects, err := h.engine.Handle(ctx, userID, Text("99000"))
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	if len(h.listings.updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(h.listings.updates))
	}
	up := h.listings.updates[0]
	if up.id != 42 || up.field != FieldPrice {
		t.Errorf("update = %+v", up)
	}
	if v, ok := up.value.(float64); !ok || v != 99000 {
		t.Errorf("price value = %v (%T)", up.value, up.value)
	}

	// The menu comes back so further fields can be edited in the same pass.
	sess, _ := h.store.Get(userID)
	if sess.Step != StepFieldChoice {
		t.Fatalf("step = %v after edit", sess.Step)
	}
	var promptBack bool
	for _, ef := range effects {
		if p, ok := ef.(Prompt); ok && p.Kind == PromptFieldChoice {
			promptBack = true
		}
	}
	if !promptBack {
		t.Error("expected the field-choice prompt again")
	}
}

func TestEditBathroomsUpdatesAsInt(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	const userID int64 = 109

	if _, err := h.engine.StartEdit(ctx, activeUser(userID), &domain.Listing{ID: 7, CreatedBy: userID}); err != nil {
		t.Fatalf("start edit: %v", err)
	}
	if _, err := h.engine.Handle(ctx, userID, PickField(FieldBathrooms)); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if _, err := h.engine.Handle(ctx, userID, Text("3")); err != nil {
		t.Fatalf("value: %v", err)
	}
	if v, ok := h.listings.updates[0].value.(int); !ok || v != 3 {
		t.Fatalf("bathrooms value = %v (%T)", h.listings.updates[0].value, h.listings.updates[0].value)
	}
}

func TestEditRefusedForNonOwner(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	listing := &domain.Listing{ID: 42, CreatedBy: 500}

	_, err := h.engine.StartEdit(ctx, activeUser(501), listing)
	var ae *domain.AuthorizationError
	if !errors.As(err, &ae) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if h.store.Active(501) {
		t.Error("no session may exist after a refused edit")
	}
}

func TestEditAllowedForAdmin(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	listing := &domain.Listing{ID: 42, CreatedBy: 500}

	if _, err := h.engine.StartEdit(ctx, adminUser(900), listing); err != nil {
		t.Fatalf("admin edit must be allowed: %v", err)
	}
	if !h.store.Active(900) {
		t.Error("expected an active edit session")
	}
}

func TestEditVanishedListingEndsSession(t *testing.T) {
	h := newHarness()
	h.listings.updateErr = &domain.NotFoundError{Entity: "listing", ID: 42}
	ctx := context.Background()
	const userID int64 = 110

	if _, err := h.engine.StartEdit(ctx, activeUser(userID), &domain.Listing{ID: 42, CreatedBy: userID}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := h.engine.Handle(ctx, userID, PickField(FieldTitle)); err != nil {
		t.Fatalf("pick: %v", err)
	}
	_, err := h.engine.Handle(ctx, userID, Text("New title"))
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if h.store.Active(userID) {
		t.Error("session must end when the listing vanished")
	}
}

func TestEditFinish(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	const userID int64 = 111

	if _, err := h.engine.StartEdit(ctx, activeUser(userID), &domain.Listing{ID: 1, CreatedBy: userID}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := h.engine.Handle(ctx, userID, Signal(ControlFinishEdit)); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if h.store.Active(userID) {
		t.Error("session must be cleared after finishing the edit")
	}
}

func TestRegistrationAssignsRoleFromAllowList(t *testing.T) {
	cases := []struct {
		name   string
		userID int64
		want   domain.Role
	}{
		{"listed id becomes admin", 900, domain.RoleAdmin},
		{"other id stays user", 901, domain.RoleUser},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(900)
			ctx := context.Background()

			if _, err := h.engine.StartRegistration(ctx, tc.userID); err != nil {
				t.Fatalf("start: %v", err)
			}
			if _, err := h.engine.Handle(ctx, tc.userID, Text("Alex")); err != nil {
				t.Fatalf("name: %v", err)
			}
			if _, err := h.engine.Handle(ctx, tc.userID, Contact("+15550100")); err != nil {
				t.Fatalf("contact: %v", err)
			}

			if len(h.users.created) != 1 {
				t.Fatalf("expected 1 user, got %d", len(h.users.created))
			}
			u := h.users.created[0]
			if u.Role != tc.want {
				t.Errorf("role = %q, want %q", u.Role, tc.want)
			}
			if u.TelegramID != tc.userID || !u.Active {
				t.Errorf("user = %+v", u)
			}
			if u.DisplayName == nil || *u.DisplayName != "Alex" {
				t.Errorf("display name = %v", u.DisplayName)
			}
			if u.Phone == nil || *u.Phone != "+15550100" {
				t.Errorf("phone = %v", u.Phone)
			}
			if h.store.Active(tc.userID) {
				t.Error("session must be cleared after registration")
			}
		})
	}
}

func TestRegistrationPhoneRequiresContact(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	const userID int64 = 112

	if _, err := h.engine.StartRegistration(ctx, userID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := h.engine.Handle(ctx, userID, Text("Alex")); err != nil {
		t.Fatalf("name: %v", err)
	}
	_, err := h.engine.Handle(ctx, userID, Text("+15550100"))
	if !domain.IsValidation(err) {
		t.Fatalf("typed phone must be rejected, got %v", err)
	}
	sess, _ := h.store.Get(userID)
	if sess.Step != StepPhone {
		t.Fatalf("step = %v", sess.Step)
	}
}

func TestPreviewEscapesUserMarkup(t *testing.T) {
	sess := NewSession(ModeCreating, StepConfirm)
	sess.Fields[FieldLocation] = "Main *street* 1"
	sess.Fields[FieldAdditions] = "balcony_with_view"

	out := previewText(sess)
	if strings.Contains(out, "*street*") {
		t.Errorf("location markup must be escaped:\n%s", out)
	}
	if strings.Contains(out, "balcony_with_view") {
		t.Errorf("additions markup must be escaped:\n%s", out)
	}
}

func TestHandleWithoutSession(t *testing.T) {
	h := newHarness()
	_, err := h.engine.Handle(context.Background(), 999, Text("hello"))
	if !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("expected no-active-session, got %v", err)
	}
}

func TestCreationRefusedForInactiveUser(t *testing.T) {
	h := newHarness()
	u := activeUser(300)
	u.Active = false
	_, err := h.engine.StartCreation(context.Background(), u)
	var ae *domain.AuthorizationError
	if !errors.As(err, &ae) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if h.store.Active(300) {
		t.Error("no session may exist after refusal")
	}
}
