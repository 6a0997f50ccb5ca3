package entity

import "time"

type SessionStatus string

const (
	StatusNotStarted SessionStatus = "not_started"
	StatusLoading    SessionStatus = "loading"
	StatusActive     SessionStatus = "active"
	StatusFinished   SessionStatus = "finished"
	StatusFailed     SessionStatus = "failed"
)

// Phase is the sub-step within a turn: the open English comprehension
// question first, then the Spanish grammar fill-in question.
type Phase string

const (
	PhaseConcept Phase = "concept"
	PhaseGrammar Phase = "grammar"
)

type EntryRole string

const (
	RoleUser    EntryRole = "user"
	RoleService EntryRole = "service"
)

// Challenge is the data bundle for one turn of the tour. It is immutable
// once received except for BridgeContext, which may be overwritten once per
// turn by the personalized bridge sentence.
type Challenge struct {
	LocationName    string   `json:"location_name"`
	LocationType    string   `json:"location_type"`
	Illustration    string   `json:"illustration"`
	EnglishQuestion string   `json:"english_question"`
	BridgeContext   string   `json:"bridge_context"`
	GrammarQuestion string   `json:"grammar_question"`
	Options         []string `json:"options"`
	CorrectAnswer   string   `json:"-"`
	Explanation     string   `json:"-"`
	IsFinal         bool     `json:"is_final"`
}

// SourceReference is a grounding citation attached to a service turn.
type SourceReference struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// ChatEntry is one record of the append-only session history: either a user
// submission or a service delivery. Challenge is set only on service entries
// that carry a new turn.
type ChatEntry struct {
	Role      EntryRole         `json:"role"`
	Phase     Phase             `json:"phase"`
	Text      string            `json:"text,omitempty"`
	Challenge *Challenge        `json:"challenge,omitempty"`
	Sources   []SourceReference `json:"sources,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type StartGameRequest struct {
	// LocationHint is accepted but the campus configuration is fixed
	// server-side; the controller may ignore it.
	LocationHint string `json:"location_hint"`
}

type SubmitReflectionRequest struct {
	Text string `json:"text" validate:"required"`
}

type SubmitAnswerRequest struct {
	Choice string `json:"choice" validate:"required"`
}

// SessionState is the full controller state exposed to the rendering layer.
type SessionState struct {
	SessionID       string        `json:"session_id"`
	Status          SessionStatus `json:"status"`
	Turn            int           `json:"turn"`
	MaxTurns        int           `json:"max_turns"`
	Phase           Phase         `json:"phase"`
	Busy            bool          `json:"busy"`
	ActiveChallenge *Challenge    `json:"active_challenge,omitempty"`
	History         []ChatEntry   `json:"history"`
}

// AnswerResult reports the outcome of a phase-2 selection.
type AnswerResult struct {
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
	Finished    bool   `json:"finished"`
}

type LocationItem struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	GrammarFocus string `json:"grammar_focus"`
	Illustration string `json:"illustration"`
}
