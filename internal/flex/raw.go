package flex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/shohag/lineapi/internal/models"
)

type node = map[string]any

var actionFields = map[string]string{
	"uri":            "uri",
	"message":        "text",
	"postback":       "data",
	"datetimepicker": "data",
	"camera":         "",
	"cameraRoll":     "",
	"location":       "",
	"richmenuswitch": "richMenuAliasId",
	"clipboard":      "clipboardText",
}

// ValidateJSON checks flex JSON produced elsewhere, for example by the
// Flex Message Simulator. data may be a bare container or a complete
// message object with "type":"flex".
func ValidateJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var root node
	if err := dec.Decode(&root); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrInvalidFlex, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return invalid("$", "unexpected data after the JSON object")
	}
	if root == nil {
		return invalid("$", "expected a JSON object")
	}

	if typeOf(root) == "flex" {
		alt, _ := root["altText"].(string)
		if n := utf8.RuneCountInString(alt); n == 0 || n > MaxAltTextChars {
			return invalid("$.altText", "needs 1..%d characters, got %d", MaxAltTextChars, n)
		}
		contents, ok := root["contents"].(node)
		if !ok {
			return invalid("$.contents", "container object is required")
		}
		return validateRawContainer("$.contents", contents)
	}
	return validateRawContainer("$", root)
}

func validateRawContainer(path string, c node) error {
	switch t := typeOf(c); t {
	case "bubble":
		if err := validateRawBubble(path, c); err != nil {
			return err
		}
		return checkSize(path, c, MaxBubbleBytes)
	case "carousel":
		items, ok := c["contents"].([]any)
		if !ok || len(items) == 0 || len(items) > MaxCarouselBubbles {
			return invalid(path, "carousel needs 1..%d bubbles", MaxCarouselBubbles)
		}
		for i, item := range items {
			p := fmt.Sprintf("%s.contents[%d]", path, i)
			b, ok := item.(node)
			if !ok || typeOf(b) != "bubble" {
				return invalid(p, "carousel items must be bubbles")
			}
			if err := validateRawBubble(p, b); err != nil {
				return err
			}
		}
		return checkSize(path, c, MaxCarouselBytes)
	default:
		return invalid(path, "unknown container type %q", t)
	}
}

func validateRawBubble(path string, b node) error {
	if size, ok := b["size"].(string); ok && !bubbleSizes[size] {
		return invalid(path, "unknown size %q", size)
	}
	blocks := 0
	for _, name := range []string{"header", "hero", "body", "footer"} {
		raw, present := b[name]
		if !present {
			continue
		}
		blocks++
		p := path + "." + name
		block, ok := raw.(node)
		if !ok {
			return invalid(p, "block must be an object")
		}
		t := typeOf(block)
		if t != "box" && !(name == "hero" && (t == "image" || t == "video")) {
			return invalid(p, "%s cannot be a %q", name, t)
		}
		if err := validateRawComponent(p, block, ""); err != nil {
			return err
		}
	}
	if blocks == 0 {
		return invalid(path, "bubble has no blocks")
	}
	return validateRawAction(path, b)
}

func validateRawComponent(path string, c node, parent Layout) error {
	t := typeOf(c)
	if parent == LayoutBaseline && !baselineTypes[t] {
		return invalid(path, "%s is not allowed in a baseline box", t)
	}
	switch t {
	case "box":
		layout, _ := c["layout"].(string)
		if !Layout(layout).valid() {
			return invalid(path, "unknown layout %q", layout)
		}
		children, ok := c["contents"].([]any)
		if !ok {
			return invalid(path, "box needs a contents array")
		}
		for i, child := range children {
			p := fmt.Sprintf("%s.contents[%d]", path, i)
			cn, ok := child.(node)
			if !ok {
				return invalid(p, "component must be an object")
			}
			if err := validateRawComponent(p, cn, Layout(layout)); err != nil {
				return err
			}
		}
	case "text":
		text, _ := c["text"].(string)
		spans, _ := c["contents"].([]any)
		if text == "" && len(spans) == 0 {
			return invalid(path, "text needs text or spans")
		}
	case "button":
		if _, ok := c["action"].(node); !ok {
			return invalid(path, "button needs an action")
		}
		if style, ok := c["style"].(string); ok && !buttonStyles[style] {
			return invalid(path, "unknown button style %q", style)
		}
	case "image", "icon":
		url, _ := c["url"].(string)
		if !models.IsHTTPS(url) {
			return invalid(path, "%s url must use https", t)
		}
	case "video":
		for _, k := range []string{"url", "previewUrl"} {
			u, _ := c[k].(string)
			if !models.IsHTTPS(u) {
				return invalid(path, "video %s must use https", k)
			}
		}
	case "separator", "filler", "spacer":
	default:
		return invalid(path, "unknown component type %q", t)
	}
	return validateRawAction(path, c)
}

func validateRawAction(path string, c node) error {
	raw, present := c["action"]
	if !present {
		return nil
	}
	p := path + ".action"
	a, ok := raw.(node)
	if !ok {
		return invalid(p, "action must be an object")
	}
	t := typeOf(a)
	field, known := actionFields[t]
	if !known {
		return invalid(p, "unknown action type %q", t)
	}
	if field != "" {
		if v, _ := a[field].(string); v == "" {
			return invalid(p, "%s action needs %q", t, field)
		}
	}
	if label, _ := a["label"].(string); utf8.RuneCountInString(label) > models.MaxActionLabelChars {
		return invalid(p, "label exceeds %d characters", models.MaxActionLabelChars)
	}
	return nil
}

func typeOf(n node) string {
	t, _ := n["type"].(string)
	return t
}
