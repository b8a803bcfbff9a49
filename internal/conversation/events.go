package conversation

// EventKind discriminates inbound events handed to the engine by the
// dispatch shell.
type EventKind int

const (
	// EventText is a plain text message.
	EventText EventKind = iota
	// EventMedia is a photo/video attachment carrying an opaque file handle.
	EventMedia
	// EventContact is a shared phone contact (registration flow).
	EventContact
	// EventControl is a control signal, usually from an inline button.
	EventControl
)

// Control names the recognized control signals.
type Control string

const (
	ControlFinishMedia Control = "finish_media"
	ControlSave        Control = "save"
	ControlCancel      Control = "cancel"
	ControlFinishEdit  Control = "finish_edit"
	ControlPickField   Control = "pick_field"
)

// Event is one user-supplied input processed by a single engine transition.
type Event struct {
	Kind      EventKind
	Text      string
	Media     string
	MediaKind string
	Phone     string
	Control   Control
	// Field carries the target of a pick_field control signal.
	Field string
}

// Text builds a plain text event.
func Text(text string) Event {
	return Event{Kind: EventText, Text: text}
}

// Media builds a media attachment event.
func Media(handle, kind string) Event {
	return Event{Kind: EventMedia, Media: handle, MediaKind: kind}
}

// Contact builds a shared-contact event.
func Contact(phone string) Event {
	return Event{Kind: EventContact, Phone: phone}
}

// Signal builds a control event.
func Signal(ctl Control) Event {
	return Event{Kind: EventControl, Control: ctl}
}

// PickField builds the pick_field:<field> control event.
func PickField(field string) Event {
	return Event{Kind: EventControl, Control: ControlPickField, Field: field}
}

// PromptKind tells the dispatch shell which reply markup a prompt needs.
type PromptKind int

const (
	// PromptPlain expects free text; any reply keyboard is removed.
	PromptPlain PromptKind = iota
	// PromptChoices suggests answers on a reply keyboard.
	PromptChoices
	// PromptMedia expects attachments plus a "done" control.
	PromptMedia
	// PromptConfirm expects the save/cancel controls.
	PromptConfirm
	// PromptFieldChoice expects a pick_field control.
	PromptFieldChoice
	// PromptContact expects the contact-sharing button.
	PromptContact
)

// Effect is one outbound instruction for the dispatch shell.
type Effect interface{ isEffect() }

// Prompt asks the user for the next input.
type Prompt struct {
	Kind    PromptKind
	Text    string
	Choices [][]string
	// Fields carries the selectable field names for PromptFieldChoice.
	Fields []string
}

// Ack confirms an accepted input or a completed sub-action.
type Ack struct {
	Text string
}

// Warning surfaces a non-fatal problem, e.g. a publication failure after a
// successful commit.
type Warning struct {
	Text string
}

// Completion reports a finalized creation flow.
type Completion struct {
	ListingID int64
}

func (Prompt) isEffect()     {}
func (Ack) isEffect()        {}
func (Warning) isEffect()    {}
func (Completion) isEffect() {}
