package flex

import (
	"encoding/json"

	"github.com/shohag/lineapi/internal/models"
)

// Container is the top level of a flex message: a Bubble or a Carousel.
type Container interface {
	ContainerType() string
}

// Bubble sizes.
const (
	SizeNano  = "nano"
	SizeMicro = "micro"
	SizeDeca  = "deca"
	SizeHecto = "hecto"
	SizeKilo  = "kilo"
	SizeMega  = "mega"
	SizeGiga  = "giga"
)

type Bubble struct {
	Size      string        `json:"size,omitempty"`
	Direction string        `json:"direction,omitempty"`
	Header    *Box          `json:"header,omitempty"`
	Hero      Component     `json:"hero,omitempty"`
	Body      *Box          `json:"body,omitempty"`
	Footer    *Box          `json:"footer,omitempty"`
	Styles    *BubbleStyles `json:"styles,omitempty"`
	Action    models.Action `json:"action,omitempty"`
}

// NewBubble returns a bubble with a vertical body holding contents.
func NewBubble(contents ...Component) *Bubble {
	return &Bubble{Body: NewBox(LayoutVertical, contents...)}
}

func (b Bubble) ContainerType() string { return "bubble" }

func (b Bubble) MarshalJSON() ([]byte, error) {
	type alias Bubble
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{b.ContainerType(), alias(b)})
}

type BubbleStyles struct {
	Header *BlockStyle `json:"header,omitempty"`
	Hero   *BlockStyle `json:"hero,omitempty"`
	Body   *BlockStyle `json:"body,omitempty"`
	Footer *BlockStyle `json:"footer,omitempty"`
}

type BlockStyle struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
	Separator       bool   `json:"separator,omitempty"`
	SeparatorColor  string `json:"separatorColor,omitempty"`
}

type Carousel struct {
	Contents []*Bubble `json:"contents"`
}

func NewCarousel(bubbles ...*Bubble) *Carousel {
	return &Carousel{Contents: bubbles}
}

func (c Carousel) ContainerType() string { return "carousel" }

func (c Carousel) MarshalJSON() ([]byte, error) {
	type alias Carousel
	if c.Contents == nil {
		c.Contents = []*Bubble{}
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.ContainerType(), alias(c)})
}
