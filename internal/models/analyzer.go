package models

import "strconv"

// SessionSummary is one entry of the analyzer session list.
type SessionSummary struct {
	ID              string `json:"id" validate:"required"`
	SummaryPreview  string `json:"summary_preview"`
	DocumentPreview string `json:"document_preview"`
	CreatedAt       Time   `json:"created_at"`
	MessageCount    int    `json:"message_count"`
}

// AnalyzerSession is a document summary plus the extracted document text.
type AnalyzerSession struct {
	ID           string `json:"id" validate:"required"`
	Summary      string `json:"summary"`
	DocumentText string `json:"document_text"`
	CreatedAt    Time   `json:"created_at"`
}

// ChatMessage is a stored analyzer chat message.
type ChatMessage struct {
	ID        FlexID `json:"id"`
	Message   string `json:"message"`
	IsUser    bool   `json:"is_user"`
	Timestamp Time   `json:"timestamp"`
}

// Turn converts the message into a transcript turn.
func (m ChatMessage) Turn() Turn {
	sender := SenderAssistant
	if m.IsUser {
		sender = SenderUser
	}
	return Turn{
		ID:     string(m.ID),
		Sender: sender,
		Text:   m.Message,
		Kind:   KindMessage,
		At:     m.Timestamp.Time,
	}
}

// FlexID accepts identifiers serialized either as JSON strings or numbers.
type FlexID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *FlexID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	if string(data) == "null" {
		*id = ""
		return nil
	}
	*id = FlexID(data)
	return nil
}
