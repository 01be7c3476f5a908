package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-turns/pkg/narrative"
)

// ErrStoryNotFound is returned when a story file does not exist.
var ErrStoryNotFound = errors.New("story not found")

// Turn actions recorded in a transcript.
const (
	ActionStart    = "start"
	ActionContinue = "continue"
	ActionChoose   = "choose"
	ActionRestart  = "restart"
)

// TurnRecord is one resolved turn in a session transcript.
type TurnRecord struct {
	Turn        int                 `json:"turn"`
	Action      string              `json:"action"`
	ChoiceIndex *int                `json:"choice_index,omitempty"` // Set only for ActionChoose
	View        narrative.ViewState `json:"view"`
	At          time.Time           `json:"at"`
}

// Storage defines a unified interface for all storage operations.
// Story documents are read from the filesystem; transcripts live in Redis
// with a TTL and are an audit trail only, never a save file.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Story operations (filesystem-backed)
	// ListStories maps story titles to filenames.
	ListStories(ctx context.Context) (map[string]string, error)
	GetStory(ctx context.Context, filename string) ([]byte, error)

	// Transcript operations (Redis-backed)
	AppendTurn(ctx context.Context, sessionID uuid.UUID, rec TurnRecord) error
	Transcript(ctx context.Context, sessionID uuid.UUID) ([]TurnRecord, error)
	DeleteTranscript(ctx context.Context, sessionID uuid.UUID) error
}
