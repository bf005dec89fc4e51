// Package flex builds Flex Message layouts: bubbles and carousels made of
// boxes, text, buttons, images and separators.
package flex

import (
	"encoding/json"

	"github.com/shohag/lineapi/internal/models"
)

// Layout is the main axis of a Box.
type Layout string

const (
	LayoutHorizontal Layout = "horizontal"
	LayoutVertical   Layout = "vertical"
	LayoutBaseline   Layout = "baseline"
)

func (l Layout) valid() bool {
	switch l {
	case LayoutHorizontal, LayoutVertical, LayoutBaseline:
		return true
	}
	return false
}

// Component is anything that can be placed inside a Box.
type Component interface {
	ComponentType() string
}

// Int returns a pointer to v, for the optional flex ratio fields where 0 is
// a meaningful value.
func Int(v int) *int { return &v }

type Box struct {
	Layout          Layout        `json:"layout"`
	Contents        []Component   `json:"contents"`
	Flex            *int          `json:"flex,omitempty"`
	Spacing         string        `json:"spacing,omitempty"`
	Margin          string        `json:"margin,omitempty"`
	PaddingAll      string        `json:"paddingAll,omitempty"`
	PaddingTop      string        `json:"paddingTop,omitempty"`
	PaddingBottom   string        `json:"paddingBottom,omitempty"`
	PaddingStart    string        `json:"paddingStart,omitempty"`
	PaddingEnd      string        `json:"paddingEnd,omitempty"`
	BackgroundColor string        `json:"backgroundColor,omitempty"`
	BorderColor     string        `json:"borderColor,omitempty"`
	BorderWidth     string        `json:"borderWidth,omitempty"`
	CornerRadius    string        `json:"cornerRadius,omitempty"`
	Width           string        `json:"width,omitempty"`
	Height          string        `json:"height,omitempty"`
	JustifyContent  string        `json:"justifyContent,omitempty"`
	AlignItems      string        `json:"alignItems,omitempty"`
	Action          models.Action `json:"action,omitempty"`
}

func NewBox(layout Layout, contents ...Component) *Box {
	return &Box{Layout: layout, Contents: contents}
}

func (b Box) ComponentType() string { return "box" }

func (b Box) MarshalJSON() ([]byte, error) {
	type alias Box
	if b.Contents == nil {
		b.Contents = []Component{}
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{b.ComponentType(), alias(b)})
}

type Text struct {
	Text        string        `json:"text,omitempty"`
	Contents    []*Span       `json:"contents,omitempty"`
	Flex        *int          `json:"flex,omitempty"`
	Margin      string        `json:"margin,omitempty"`
	Size        string        `json:"size,omitempty"`
	Align       string        `json:"align,omitempty"`
	Gravity     string        `json:"gravity,omitempty"`
	Wrap        bool          `json:"wrap,omitempty"`
	LineSpacing string        `json:"lineSpacing,omitempty"`
	MaxLines    int           `json:"maxLines,omitempty"`
	Weight      string        `json:"weight,omitempty"`
	Color       string        `json:"color,omitempty"`
	Style       string        `json:"style,omitempty"`
	Decoration  string        `json:"decoration,omitempty"`
	Action      models.Action `json:"action,omitempty"`
}

func NewText(text string) *Text {
	return &Text{Text: text}
}

func (t Text) ComponentType() string { return "text" }

func (t Text) MarshalJSON() ([]byte, error) {
	type alias Text
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{t.ComponentType(), alias(t)})
}

// Span styles a run of characters inside a Text.
type Span struct {
	Text       string `json:"text"`
	Size       string `json:"size,omitempty"`
	Color      string `json:"color,omitempty"`
	Weight     string `json:"weight,omitempty"`
	Style      string `json:"style,omitempty"`
	Decoration string `json:"decoration,omitempty"`
}

func NewSpan(text string) *Span {
	return &Span{Text: text}
}

func (s Span) ComponentType() string { return "span" }

func (s Span) MarshalJSON() ([]byte, error) {
	type alias Span
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{s.ComponentType(), alias(s)})
}

// Button styles.
const (
	ButtonPrimary   = "primary"
	ButtonSecondary = "secondary"
	ButtonLink      = "link"
)

type Button struct {
	Action  models.Action `json:"action"`
	Flex    *int          `json:"flex,omitempty"`
	Margin  string        `json:"margin,omitempty"`
	Height  string        `json:"height,omitempty"`
	Style   string        `json:"style,omitempty"`
	Color   string        `json:"color,omitempty"`
	Gravity string        `json:"gravity,omitempty"`
}

func NewButton(action models.Action) *Button {
	return &Button{Action: action}
}

func (b Button) ComponentType() string { return "button" }

func (b Button) MarshalJSON() ([]byte, error) {
	type alias Button
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{b.ComponentType(), alias(b)})
}

type Image struct {
	URL             string        `json:"url"`
	Flex            *int          `json:"flex,omitempty"`
	Margin          string        `json:"margin,omitempty"`
	Align           string        `json:"align,omitempty"`
	Gravity         string        `json:"gravity,omitempty"`
	Size            string        `json:"size,omitempty"`
	AspectRatio     string        `json:"aspectRatio,omitempty"`
	AspectMode      string        `json:"aspectMode,omitempty"`
	BackgroundColor string        `json:"backgroundColor,omitempty"`
	Action          models.Action `json:"action,omitempty"`
}

func NewImage(url string) *Image {
	return &Image{URL: url}
}

func (i Image) ComponentType() string { return "image" }

func (i Image) MarshalJSON() ([]byte, error) {
	type alias Image
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{i.ComponentType(), alias(i)})
}

type Separator struct {
	Margin string `json:"margin,omitempty"`
	Color  string `json:"color,omitempty"`
}

func NewSeparator() *Separator {
	return &Separator{}
}

func (s Separator) ComponentType() string { return "separator" }

func (s Separator) MarshalJSON() ([]byte, error) {
	type alias Separator
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{s.ComponentType(), alias(s)})
}

// Filler takes up free space in a box.
type Filler struct {
	Flex *int `json:"flex,omitempty"`
}

func (f Filler) ComponentType() string { return "filler" }

func (f Filler) MarshalJSON() ([]byte, error) {
	type alias Filler
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{f.ComponentType(), alias(f)})
}
