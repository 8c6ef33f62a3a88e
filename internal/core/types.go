package core

import "time"

const (
	AppName      = "CareSage"
	AppUserAgent = "CareSage/0.1"
	AppVersion   = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is the wire shape sent to the generation capability.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation owns an ordered, immutable sequence of turns.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn is one user or assistant message within a conversation.
// Immutable once persisted.
type Turn struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	DocumentID     string    `json:"document_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Intent is the single routing label chosen for a message.
type Intent string

const (
	IntentSymptom    Intent = "symptom"
	IntentMedication Intent = "medication"
	IntentReport     Intent = "report"
	IntentDiagnosis  Intent = "diagnosis"
	IntentTracking   Intent = "tracking"
	IntentGeneral    Intent = "general"
	IntentOffTopic   Intent = "off-topic"
)

// Intents is the closed set of routing labels.
var Intents = []Intent{
	IntentSymptom,
	IntentMedication,
	IntentReport,
	IntentDiagnosis,
	IntentTracking,
	IntentGeneral,
	IntentOffTopic,
}

type FactKind string

const (
	FactSymptom    FactKind = "symptom"
	FactVitalSign  FactKind = "vital_sign"
	FactMedication FactKind = "medication"
)

// ExtractedFact is a typed record derived from conversation content.
// Never mutated after creation; corrections are new facts.
type ExtractedFact struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	TurnID         string    `json:"turn_id"`
	Kind           FactKind  `json:"kind"`
	Name           string    `json:"name"`
	Severity       string    `json:"severity,omitempty"`
	Duration       string    `json:"duration,omitempty"`
	Value          string    `json:"value,omitempty"`
	Unit           string    `json:"unit,omitempty"`
	Dose           string    `json:"dose,omitempty"`
	Frequency      string    `json:"frequency,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// SafetyFlag marks a safety-relevant finding that must not be dropped
// from the turn's side effects.
type SafetyFlag struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

const (
	FlagEmergency    = "emergency"
	FlagAllergyRisk  = "allergy_risk"
	FlagInteraction  = "interaction"
	FlagMissingData  = "missing_external_data"
	FlagContraindica = "contraindication"
)

// FinalReply is the single outcome of one orchestrated turn.
type FinalReply struct {
	ConversationID string          `json:"conversation_id"`
	Text           string          `json:"text"`
	Intent         Intent          `json:"intent"`
	Facts          []ExtractedFact `json:"facts,omitempty"`
	SafetyFlags    []SafetyFlag    `json:"safety_flags,omitempty"`
	Degraded       bool            `json:"degraded"`
}

// UserProfile is the persisted health background used when grounding
// medication safety and diagnosis reasoning.
type UserProfile struct {
	UserID      string   `json:"user_id"`
	Allergies   []string `json:"allergies"`
	Conditions  []string `json:"conditions"`
	Medications []string `json:"medications"`
}
