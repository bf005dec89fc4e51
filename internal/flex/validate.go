package flex

import (
	"encoding/json"
	"fmt"

	"github.com/shohag/lineapi/internal/models"
)

const (
	MaxCarouselBubbles = 12
	MaxBubbleBytes     = 30 * 1024
	MaxCarouselBytes   = 50 * 1024
)

// ErrInvalidFlex also matches models.ErrInvalidMessage.
var ErrInvalidFlex = fmt.Errorf("%w: flex", models.ErrInvalidMessage)

var bubbleSizes = map[string]bool{
	"": true, SizeNano: true, SizeMicro: true, SizeDeca: true, SizeHecto: true,
	SizeKilo: true, SizeMega: true, SizeGiga: true,
}

var buttonStyles = map[string]bool{"": true, ButtonPrimary: true, ButtonSecondary: true, ButtonLink: true}

// Components allowed inside a baseline box.
var baselineTypes = map[string]bool{"text": true, "filler": true, "icon": true}

// Validate checks a container against the structural rules of the flex
// message format and its size limits.
func Validate(c Container) error {
	switch v := c.(type) {
	case Bubble:
		return Validate(&v)
	case Carousel:
		return Validate(&v)
	case *Bubble:
		if v == nil {
			return invalid("contents", "bubble is nil")
		}
		if err := validateBubble("bubble", v); err != nil {
			return err
		}
		return checkSize("bubble", v, MaxBubbleBytes)
	case *Carousel:
		if v == nil {
			return invalid("contents", "carousel is nil")
		}
		if n := len(v.Contents); n == 0 || n > MaxCarouselBubbles {
			return invalid("carousel", "needs 1..%d bubbles, got %d", MaxCarouselBubbles, n)
		}
		for i, b := range v.Contents {
			path := fmt.Sprintf("carousel.contents[%d]", i)
			if b == nil {
				return invalid(path, "bubble is nil")
			}
			if err := validateBubble(path, b); err != nil {
				return err
			}
		}
		return checkSize("carousel", v, MaxCarouselBytes)
	case nil:
		return invalid("contents", "container is required")
	default:
		return invalid("contents", "unsupported container %T", c)
	}
}

func validateBubble(path string, b *Bubble) error {
	if !bubbleSizes[b.Size] {
		return invalid(path, "unknown size %q", b.Size)
	}
	if b.Direction != "" && b.Direction != "ltr" && b.Direction != "rtl" {
		return invalid(path, "unknown direction %q", b.Direction)
	}
	if b.Header == nil && b.Hero == nil && b.Body == nil && b.Footer == nil {
		return invalid(path, "bubble has no blocks")
	}
	for _, block := range []struct {
		name string
		box  *Box
	}{{"header", b.Header}, {"body", b.Body}, {"footer", b.Footer}} {
		if block.box == nil {
			continue
		}
		if err := validateComponent(path+"."+block.name, block.box, ""); err != nil {
			return err
		}
	}
	if b.Hero != nil {
		hero := pointerTo(b.Hero)
		switch hero.(type) {
		case *Box, *Image:
		default:
			return invalid(path+".hero", "hero must be a box or an image, got %s", hero.ComponentType())
		}
		if err := validateComponent(path+".hero", hero, ""); err != nil {
			return err
		}
	}
	return validateAction(path, b.Action)
}

func validateComponent(path string, c Component, parent Layout) error {
	if c == nil {
		return invalid(path, "component is nil")
	}
	if parent == LayoutBaseline && !baselineTypes[c.ComponentType()] {
		return invalid(path, "%s is not allowed in a baseline box", c.ComponentType())
	}
	switch v := pointerTo(c).(type) {
	case *Box:
		if !v.Layout.valid() {
			return invalid(path, "unknown layout %q", v.Layout)
		}
		for i, child := range v.Contents {
			if err := validateComponent(fmt.Sprintf("%s.contents[%d]", path, i), child, v.Layout); err != nil {
				return err
			}
		}
		return validateAction(path, v.Action)
	case *Text:
		if v.Text == "" && len(v.Contents) == 0 {
			return invalid(path, "text needs text or spans")
		}
		for i, s := range v.Contents {
			if s == nil || s.Text == "" {
				return invalid(fmt.Sprintf("%s.contents[%d]", path, i), "span needs text")
			}
		}
		return validateAction(path, v.Action)
	case *Button:
		if v.Action == nil {
			return invalid(path, "button needs an action")
		}
		if !buttonStyles[v.Style] {
			return invalid(path, "unknown button style %q", v.Style)
		}
		return validateAction(path, v.Action)
	case *Image:
		if !models.IsHTTPS(v.URL) {
			return invalid(path, "image url must use https")
		}
		return validateAction(path, v.Action)
	case *Separator, *Filler:
		return nil
	default:
		return invalid(path, "unsupported component %s", c.ComponentType())
	}
}

func validateAction(path string, a models.Action) error {
	if a == nil {
		return nil
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %s.action: %w", ErrInvalidFlex, path, err)
	}
	return nil
}

// pointerTo lets components built as values go through the same checks as
// the pointers returned by the constructors.
func pointerTo(c Component) Component {
	switch v := c.(type) {
	case Box:
		return &v
	case Text:
		return &v
	case Button:
		return &v
	case Image:
		return &v
	case Separator:
		return &v
	case Filler:
		return &v
	}
	return c
}

func checkSize(path string, v any, limit int) error {
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: encode: %w", path, err)
	}
	if len(out) > limit {
		return invalid(path, "encoded size %d exceeds %d bytes", len(out), limit)
	}
	return nil
}

func invalid(path, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidFlex, path, fmt.Sprintf(format, args...))
}
