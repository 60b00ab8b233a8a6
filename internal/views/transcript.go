package views

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/advocai-go/internal/models"
)

// FailurePolicy decides what happens to an optimistic turn when sending fails.
type FailurePolicy int

const (
	// RollBack removes the optimistic turn.
	RollBack FailurePolicy = iota
	// KeepAndApologize keeps the optimistic turn and appends an apology.
	KeepAndApologize
)

// Transcript is an ordered, concurrency-safe list of chat turns.
type Transcript struct {
	mu    sync.Mutex
	turns []models.Turn
}

// Turns returns a copy of the transcript.
func (t *Transcript) Turns() []models.Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.turns)
}

// Append adds a turn, filling in its id and time when unset.
func (t *Transcript) Append(turn models.Turn) models.Turn {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.At.IsZero() {
		turn.At = time.Now()
	}
	if turn.Kind == "" {
		turn.Kind = models.KindMessage
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, turn)
	return turn
}

// Replace swaps the whole transcript.
func (t *Transcript) Replace(turns []models.Turn) {
	cp := make([]models.Turn, len(turns))
	copy(cp, turns)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = cp
}

// Reset empties the transcript.
func (t *Transcript) Reset() {
	t.Replace(nil)
}

func (t *Transcript) remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, turn := range t.turns {
		if turn.ID == id {
			t.turns = append(t.turns[:i], t.turns[i+1:]...)
			return true
		}
	}
	return false
}

// Optimistic appends turn immediately, then runs send. When send fails the
// policy is applied: RollBack removes the turn again, KeepAndApologize
// appends an assistant turn with the apology text.
func (t *Transcript) Optimistic(turn models.Turn, policy FailurePolicy, apology string, send func() error) error {
	added := t.Append(turn)

	err := send()
	if err == nil {
		return nil
	}

	switch policy {
	case RollBack:
		t.remove(added.ID)
	case KeepAndApologize:
		t.Append(models.Turn{
			Sender: models.SenderAssistant,
			Text:   apology,
			Kind:   models.KindApology,
		})
	}
	return err
}
