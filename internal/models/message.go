package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxTextLength       = 5000
	MaxQuickReplyItems  = 13
	MaxActionLabelChars = 20
	MaxSenderNameChars  = 20
)

var ErrInvalidMessage = errors.New("invalid message")

// Message is an outgoing message object. Implementations marshal with the
// vendor "type" discriminator as the first field.
type Message interface {
	MessageType() string
	Validate() error
}

type QuickReply struct {
	Items []QuickReplyItem `json:"items"`
}

type QuickReplyItem struct {
	ImageURL string `json:"imageUrl,omitempty"`
	Action   Action `json:"action"`
}

func (i QuickReplyItem) MarshalJSON() ([]byte, error) {
	type alias QuickReplyItem
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{"action", alias(i)})
}

func (q *QuickReply) Validate() error {
	if q == nil {
		return nil
	}
	if len(q.Items) == 0 || len(q.Items) > MaxQuickReplyItems {
		return fmt.Errorf("%w: quick reply needs 1..%d items, got %d", ErrInvalidMessage, MaxQuickReplyItems, len(q.Items))
	}
	for i, item := range q.Items {
		if item.Action == nil {
			return fmt.Errorf("%w: quick reply item %d has no action", ErrInvalidMessage, i)
		}
		if err := item.Action.Validate(); err != nil {
			return fmt.Errorf("quick reply item %d: %w", i, err)
		}
	}
	return nil
}

// Sender overrides the display name and icon of a single message.
type Sender struct {
	Name    string `json:"name,omitempty"`
	IconURL string `json:"iconUrl,omitempty"`
}

func (s *Sender) Validate() error {
	if s == nil {
		return nil
	}
	if utf8.RuneCountInString(s.Name) > MaxSenderNameChars {
		return fmt.Errorf("%w: sender name exceeds %d characters", ErrInvalidMessage, MaxSenderNameChars)
	}
	return nil
}

// Emoji replaces a "$" placeholder in TextMessage.Text.
type Emoji struct {
	Index     int    `json:"index"`
	ProductID string `json:"productId"`
	EmojiID   string `json:"emojiId"`
}

type TextMessage struct {
	Text       string      `json:"text"`
	Emojis     []Emoji     `json:"emojis,omitempty"`
	QuoteToken string      `json:"quoteToken,omitempty"`
	QuickReply *QuickReply `json:"quickReply,omitempty"`
	Sender     *Sender     `json:"sender,omitempty"`
}

func NewTextMessage(text string) *TextMessage {
	return &TextMessage{Text: text}
}

func (m TextMessage) MessageType() string { return "text" }

func (m TextMessage) Validate() error {
	n := utf8.RuneCountInString(m.Text)
	if n == 0 {
		return fmt.Errorf("%w: text is required", ErrInvalidMessage)
	}
	if n > MaxTextLength {
		return fmt.Errorf("%w: text exceeds %d characters", ErrInvalidMessage, MaxTextLength)
	}
	for _, e := range m.Emojis {
		if e.Index < 0 || e.ProductID == "" || e.EmojiID == "" {
			return fmt.Errorf("%w: emoji at index %d is incomplete", ErrInvalidMessage, e.Index)
		}
	}
	if err := m.QuickReply.Validate(); err != nil {
		return err
	}
	return m.Sender.Validate()
}

func (m TextMessage) MarshalJSON() ([]byte, error) {
	type alias TextMessage
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{m.MessageType(), alias(m)})
}

type StickerMessage struct {
	PackageID  string      `json:"packageId"`
	StickerID  string      `json:"stickerId"`
	QuickReply *QuickReply `json:"quickReply,omitempty"`
	Sender     *Sender     `json:"sender,omitempty"`
}

func NewStickerMessage(packageID, stickerID string) *StickerMessage {
	return &StickerMessage{PackageID: packageID, StickerID: stickerID}
}

func (m StickerMessage) MessageType() string { return "sticker" }

func (m StickerMessage) Validate() error {
	if m.PackageID == "" || m.StickerID == "" {
		return fmt.Errorf("%w: sticker needs packageId and stickerId", ErrInvalidMessage)
	}
	if err := m.QuickReply.Validate(); err != nil {
		return err
	}
	return m.Sender.Validate()
}

func (m StickerMessage) MarshalJSON() ([]byte, error) {
	type alias StickerMessage
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{m.MessageType(), alias(m)})
}

type ImageMessage struct {
	OriginalContentURL string      `json:"originalContentUrl"`
	PreviewImageURL    string      `json:"previewImageUrl"`
	QuickReply         *QuickReply `json:"quickReply,omitempty"`
	Sender             *Sender     `json:"sender,omitempty"`
}

func NewImageMessage(originalURL, previewURL string) *ImageMessage {
	return &ImageMessage{OriginalContentURL: originalURL, PreviewImageURL: previewURL}
}

func (m ImageMessage) MessageType() string { return "image" }

func (m ImageMessage) Validate() error {
	if !IsHTTPS(m.OriginalContentURL) || !IsHTTPS(m.PreviewImageURL) {
		return fmt.Errorf("%w: image urls must use https", ErrInvalidMessage)
	}
	if err := m.QuickReply.Validate(); err != nil {
		return err
	}
	return m.Sender.Validate()
}

func (m ImageMessage) MarshalJSON() ([]byte, error) {
	type alias ImageMessage
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{m.MessageType(), alias(m)})
}

func IsHTTPS(u string) bool {
	return strings.HasPrefix(u, "https://") && len(u) > len("https://")
}

// RawMessage is a message object encoded elsewhere and sent unchanged.
type RawMessage json.RawMessage

func (m RawMessage) MessageType() string {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(m, &head); err != nil {
		return ""
	}
	return head.Type
}

// rawFields holds what can be checked in a pre-encoded message without
// decoding its actions.
type rawFields struct {
	Type               string   `json:"type"`
	Text               string   `json:"text"`
	Emojis             []Emoji  `json:"emojis"`
	PackageID          string   `json:"packageId"`
	StickerID          string   `json:"stickerId"`
	OriginalContentURL string   `json:"originalContentUrl"`
	PreviewImageURL    string   `json:"previewImageUrl"`
	Sender             *Sender  `json:"sender"`
	QuickReply         *rawList `json:"quickReply"`
}

type rawList struct {
	Items []json.RawMessage `json:"items"`
}

// Validate applies the typed checks for text, sticker and image messages.
// Other types only need a type.
func (m RawMessage) Validate() error {
	var f rawFields
	if err := json.Unmarshal(m, &f); err != nil || f.Type == "" {
		return fmt.Errorf("%w: raw message needs a JSON object with a type", ErrInvalidMessage)
	}
	if f.QuickReply != nil {
		if n := len(f.QuickReply.Items); n == 0 || n > MaxQuickReplyItems {
			return fmt.Errorf("%w: quick reply needs 1..%d items, got %d", ErrInvalidMessage, MaxQuickReplyItems, n)
		}
	}

	switch f.Type {
	case "text":
		return TextMessage{Text: f.Text, Emojis: f.Emojis, Sender: f.Sender}.Validate()
	case "sticker":
		return StickerMessage{PackageID: f.PackageID, StickerID: f.StickerID, Sender: f.Sender}.Validate()
	case "image":
		return ImageMessage{OriginalContentURL: f.OriginalContentURL, PreviewImageURL: f.PreviewImageURL, Sender: f.Sender}.Validate()
	}
	return f.Sender.Validate()
}

func (m RawMessage) MarshalJSON() ([]byte, error) {
	return json.RawMessage(m).MarshalJSON()
}
