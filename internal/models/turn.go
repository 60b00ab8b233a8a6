package models

import "time"

// Sender identifies who produced a transcript turn.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "ai"
)

// Label is the name shown next to the turn.
func (s Sender) Label() string {
	if s == SenderUser {
		return "You"
	}
	return "AdvocAI"
}

// TurnKind distinguishes ordinary replies from generated documents and
// client-side notices appended to the transcript.
type TurnKind string

const (
	KindMessage  TurnKind = "message"
	KindDocument TurnKind = "document"
	KindWelcome  TurnKind = "welcome"
	KindApology  TurnKind = "apology"
)

// Turn is one element of a chat transcript.
type Turn struct {
	ID     string
	Sender Sender
	Text   string
	Kind   TurnKind
	At     time.Time
}

// FromUser reports whether the user wrote the turn.
func (t Turn) FromUser() bool {
	return t.Sender == SenderUser
}

// Wire converts the turn into the generator request shape.
func (t Turn) Wire() GeneratorTurn {
	return GeneratorTurn{Sender: string(t.Sender), Text: t.Text}
}

// TurnFromWire converts a stored generator message into a transcript turn.
func TurnFromWire(id string, g GeneratorTurn) Turn {
	sender := SenderAssistant
	if g.Sender == string(SenderUser) {
		sender = SenderUser
	}
	return Turn{ID: id, Sender: sender, Text: g.Text, Kind: KindMessage}
}
