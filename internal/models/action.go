package models

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Action is what happens when a user taps a button, quick reply item or
// flex component.
type Action interface {
	ActionType() string
	Validate() error
}

const MaxPostbackDataBytes = 300

type URIAction struct {
	Label string `json:"label,omitempty"`
	URI   string `json:"uri"`
}

func NewURIAction(label, uri string) *URIAction {
	return &URIAction{Label: label, URI: uri}
}

func (a URIAction) ActionType() string { return "uri" }

func (a URIAction) Validate() error {
	if a.URI == "" {
		return fmt.Errorf("%w: uri action needs a uri", ErrInvalidMessage)
	}
	return validateLabel(a.Label)
}

func (a URIAction) MarshalJSON() ([]byte, error) {
	type alias URIAction
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{a.ActionType(), alias(a)})
}

// MessageAction sends Text as a message from the user.
type MessageAction struct {
	Label string `json:"label,omitempty"`
	Text  string `json:"text"`
}

func NewMessageAction(label, text string) *MessageAction {
	return &MessageAction{Label: label, Text: text}
}

func (a MessageAction) ActionType() string { return "message" }

func (a MessageAction) Validate() error {
	if a.Text == "" {
		return fmt.Errorf("%w: message action needs text", ErrInvalidMessage)
	}
	return validateLabel(a.Label)
}

func (a MessageAction) MarshalJSON() ([]byte, error) {
	type alias MessageAction
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{a.ActionType(), alias(a)})
}

// PostbackAction delivers Data back to the webhook as a postback event.
type PostbackAction struct {
	Label       string `json:"label,omitempty"`
	Data        string `json:"data"`
	DisplayText string `json:"displayText,omitempty"`
	InputOption string `json:"inputOption,omitempty"`
	FillInText  string `json:"fillInText,omitempty"`
}

func NewPostbackAction(label, data string) *PostbackAction {
	return &PostbackAction{Label: label, Data: data}
}

func (a PostbackAction) ActionType() string { return "postback" }

func (a PostbackAction) Validate() error {
	if a.Data == "" {
		return fmt.Errorf("%w: postback action needs data", ErrInvalidMessage)
	}
	if len(a.Data) > MaxPostbackDataBytes {
		return fmt.Errorf("%w: postback data exceeds %d bytes", ErrInvalidMessage, MaxPostbackDataBytes)
	}
	return validateLabel(a.Label)
}

func (a PostbackAction) MarshalJSON() ([]byte, error) {
	type alias PostbackAction
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{a.ActionType(), alias(a)})
}

// DatetimePickerAction modes.
const (
	PickDate     = "date"
	PickTime     = "time"
	PickDatetime = "datetime"
)

type DatetimePickerAction struct {
	Label   string `json:"label,omitempty"`
	Data    string `json:"data"`
	Mode    string `json:"mode"`
	Initial string `json:"initial,omitempty"`
	Max     string `json:"max,omitempty"`
	Min     string `json:"min,omitempty"`
}

func (a DatetimePickerAction) ActionType() string { return "datetimepicker" }

func (a DatetimePickerAction) Validate() error {
	switch a.Mode {
	case PickDate, PickTime, PickDatetime:
	default:
		return fmt.Errorf("%w: unknown datetime picker mode %q", ErrInvalidMessage, a.Mode)
	}
	if a.Data == "" {
		return fmt.Errorf("%w: datetime picker needs data", ErrInvalidMessage)
	}
	return validateLabel(a.Label)
}

func (a DatetimePickerAction) MarshalJSON() ([]byte, error) {
	type alias DatetimePickerAction
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{a.ActionType(), alias(a)})
}

func validateLabel(label string) error {
	if utf8.RuneCountInString(label) > MaxActionLabelChars {
		return fmt.Errorf("%w: action label exceeds %d characters", ErrInvalidMessage, MaxActionLabelChars)
	}
	return nil
}
