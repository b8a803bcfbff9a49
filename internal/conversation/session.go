package conversation

import "sync"

// Mode identifies which flow a session is progressing through.
type Mode string

const (
	ModeIdle        Mode = "idle"
	ModeRegistering Mode = "registering"
	ModeCreating    Mode = "creating"
	ModeEditing     Mode = "editing"
)

// Step identifies one state of the conversation state machine.
type Step string

const (
	StepLocation    Step = "awaiting_location"
	StepMedia       Step = "awaiting_media"
	StepDescription Step = "awaiting_description"
	StepCondition   Step = "awaiting_condition"
	StepParking     Step = "awaiting_parking"
	StepBathrooms   Step = "awaiting_bathrooms"
	StepAdditions   Step = "awaiting_additions"
	StepPrice       Step = "awaiting_price"
	StepConfirm     Step = "awaiting_confirmation"

	StepFieldChoice Step = "awaiting_field_choice"
	StepFieldValue  Step = "awaiting_field_value"

	StepName  Step = "awaiting_name"
	StepPhone Step = "awaiting_phone"
)

// Session holds the per-user conversation progress between engine calls.
// The dispatch shell serializes events per user, so a session is only ever
// mutated by one engine transition at a time.
type Session struct {
	Mode   Mode
	Step   Step
	Fields map[string]string
	Media  []string
	// TargetListing is set in editing mode only.
	TargetListing int64
	// PendingField is the field awaiting a value in editing mode.
	PendingField string
}

// NewSession creates a session in the given mode and step.
func NewSession(mode Mode, step Step) *Session {
	return &Session{
		Mode:   mode,
		Step:   step,
		Fields: make(map[string]string),
	}
}

// Store is the session persistence boundary. The in-memory implementation
// below is the reference; swapping in a durable store must not require
// touching the engine.
type Store interface {
	Get(userID int64) (*Session, bool)
	Put(userID int64, s *Session)
	Delete(userID int64)
	Active(userID int64) bool
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryStore constructs the in-memory Store used by the reference
// deployment. Sessions do not survive process restart.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[int64]*Session)}
}

func (m *memoryStore) Get(userID int64) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

func (m *memoryStore) Put(userID int64, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = s
}

func (m *memoryStore) Delete(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

func (m *memoryStore) Active(userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return ok && s.Mode != ModeIdle
}
