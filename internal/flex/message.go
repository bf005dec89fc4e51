package flex

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/shohag/lineapi/internal/models"
)

const MaxAltTextChars = 400

// Message wraps a container for sending. AltText is shown in notifications
// and on clients that cannot render flex layouts.
type Message struct {
	AltText    string             `json:"altText"`
	Contents   Container          `json:"contents"`
	QuickReply *models.QuickReply `json:"quickReply,omitempty"`
	Sender     *models.Sender     `json:"sender,omitempty"`
}

func NewMessage(altText string, contents Container) *Message {
	return &Message{AltText: altText, Contents: contents}
}

func (m Message) MessageType() string { return "flex" }

func (m Message) Validate() error {
	n := utf8.RuneCountInString(m.AltText)
	if n == 0 || n > MaxAltTextChars {
		return fmt.Errorf("%w: altText needs 1..%d characters, got %d", ErrInvalidFlex, MaxAltTextChars, n)
	}
	if err := Validate(m.Contents); err != nil {
		return err
	}
	if err := m.QuickReply.Validate(); err != nil {
		return err
	}
	return m.Sender.Validate()
}

func (m Message) MarshalJSON() ([]byte, error) {
	type alias Message
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{m.MessageType(), alias(m)})
}
