package flex

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shohag/lineapi/internal/models"
)

const cafeJSON = `{"type":"bubble",` +
	`"hero":{"type":"image","url":"https://example.com/hero.png","size":"full","aspectRatio":"20:13","aspectMode":"cover"},` +
	`"body":{"type":"box","layout":"vertical","contents":[` +
	`{"type":"text","text":"Brown Cafe","size":"xl","weight":"bold"},` +
	`{"type":"separator"},` +
	`{"type":"box","layout":"baseline","contents":[{"type":"text","text":"Place"},{"type":"text","text":"Tokyo","flex":5}]}` +
	`]},` +
	`"footer":{"type":"box","layout":"vertical","contents":[` +
	`{"type":"button","action":{"type":"uri","label":"Call","uri":"tel:000"},"style":"link"}` +
	`]}}`

func cafeBubble() *Bubble {
	return &Bubble{
		Hero: &Image{URL: "https://example.com/hero.png", Size: "full", AspectRatio: "20:13", AspectMode: "cover"},
		Body: NewBox(LayoutVertical,
			&Text{Text: "Brown Cafe", Weight: "bold", Size: "xl"},
			NewSeparator(),
			NewBox(LayoutBaseline, NewText("Place"), &Text{Text: "Tokyo", Flex: Int(5)}),
		),
		Footer: NewBox(LayoutVertical, &Button{Action: models.NewURIAction("Call", "tel:000"), Style: ButtonLink}),
	}
}

func TestBubbleJSON(t *testing.T) {
	out, err := json.Marshal(cafeBubble())
	require.NoError(t, err)
	assert.Equal(t, cafeJSON, string(out))
}

func TestMessageJSON(t *testing.T) {
	out, err := json.Marshal(NewMessage("Brown Cafe", cafeBubble()))
	require.NoError(t, err)
	assert.Equal(t, `{"type":"flex","altText":"Brown Cafe","contents":`+cafeJSON+`}`, string(out))
}

func TestEmptyContainersEncodeArrays(t *testing.T) {
	out, err := json.Marshal(&Box{Layout: LayoutHorizontal})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"box","layout":"horizontal","contents":[]}`, string(out))

	out, err = json.Marshal(&Carousel{})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"carousel","contents":[]}`, string(out))
}

func TestFlexZeroIsKept(t *testing.T) {
	out, err := json.Marshal(&Filler{Flex: Int(0)})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"filler","flex":0}`, string(out))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(cafeBubble()))
	assert.NoError(t, Validate(NewCarousel(cafeBubble(), cafeBubble())))

	tooMany := NewCarousel()
	for i := 0; i <= MaxCarouselBubbles; i++ {
		tooMany.Contents = append(tooMany.Contents, NewBubble(NewText("x")))
	}

	for name, c := range map[string]Container{
		"nil":            nil,
		"empty carousel": NewCarousel(),
		"full carousel":  tooMany,
		"no blocks":      &Bubble{},
		"bad size":       &Bubble{Size: "huge", Body: NewBox(LayoutVertical)},
		"bad layout":     NewBubble(NewBox("diagonal")),
		"empty text":     NewBubble(NewText("")),
		"button in baseline": NewBubble(NewBox(LayoutBaseline,
			NewButton(models.NewMessageAction("ok", "ok")))),
		"button without action": NewBubble(&Button{}),
		"http image":            NewBubble(NewImage("http://example.com/a.png")),
		"separator hero":        &Bubble{Hero: NewSeparator()},
		"bad action": NewBubble(&Text{Text: "x",
			Action: models.NewPostbackAction("", "")}),
		"oversized": NewBubble(NewText(strings.Repeat("a", MaxBubbleBytes))),
	} {
		t.Run(name, func(t *testing.T) {
			err := Validate(c)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFlex)
			assert.ErrorIs(t, err, models.ErrInvalidMessage)
		})
	}
}

func TestValidateValueComponents(t *testing.T) {
	b := Bubble{
		Hero: Image{URL: "https://example.com/hero.png"},
		Body: &Box{Layout: LayoutVertical, Contents: []Component{
			Text{Text: "hi"},
			Separator{},
			Box{Layout: LayoutBaseline, Contents: []Component{Text{Text: "a"}, Filler{}}},
			Button{Action: models.NewURIAction("Open", "https://example.com")},
		}},
	}
	assert.NoError(t, Validate(b))
	assert.NoError(t, Validate(&b))
	assert.NoError(t, Validate(Carousel{Contents: []*Bubble{&b}}))
	assert.NoError(t, NewMessage("alt", b).Validate())

	exported, err := Export(b)
	require.NoError(t, err)
	assert.NoError(t, ValidateJSON(exported))

	bad := Bubble{Body: &Box{Layout: LayoutBaseline, Contents: []Component{Button{Action: models.NewMessageAction("ok", "ok")}}}}
	assert.ErrorIs(t, Validate(bad), ErrInvalidFlex)
	assert.ErrorIs(t, Validate(Bubble{Hero: Separator{}}), ErrInvalidFlex)
	assert.ErrorIs(t, Validate(NewBubble(Text{})), ErrInvalidFlex)
}

func TestValidateActionErrorChain(t *testing.T) {
	err := Validate(NewBubble(&Text{Text: "x", Action: models.NewPostbackAction("", "")}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFlex)
	assert.Contains(t, err.Error(), "bubble.body.contents[0].action")
}

func TestMessageValidateAltText(t *testing.T) {
	assert.NoError(t, NewMessage("menu", cafeBubble()).Validate())
	assert.ErrorIs(t, NewMessage("", cafeBubble()).Validate(), ErrInvalidFlex)
	assert.ErrorIs(t, NewMessage(strings.Repeat("a", MaxAltTextChars+1), cafeBubble()).Validate(), ErrInvalidFlex)
}

func TestValidateJSON(t *testing.T) {
	assert.NoError(t, ValidateJSON([]byte(cafeJSON)))

	exported, err := Export(NewCarousel(cafeBubble()))
	require.NoError(t, err)
	assert.NoError(t, ValidateJSON(exported))

	msg, err := json.Marshal(NewMessage("Brown Cafe", cafeBubble()))
	require.NoError(t, err)
	assert.NoError(t, ValidateJSON(msg))

	for name, doc := range map[string]string{
		"not json":        `{`,
		"array":           `[]`,
		"unknown type":    `{"type":"panel"}`,
		"flex no alt":     `{"type":"flex","contents":` + cafeJSON + `}`,
		"flex no body":    `{"type":"flex","altText":"x"}`,
		"empty bubble":    `{"type":"bubble"}`,
		"box no contents": `{"type":"bubble","body":{"type":"box","layout":"vertical"}}`,
		"bad layout":      `{"type":"bubble","body":{"type":"box","layout":"grid","contents":[]}}`,
		"unknown comp":    `{"type":"bubble","body":{"type":"box","layout":"vertical","contents":[{"type":"slider"}]}}`,
		"baseline image":  `{"type":"bubble","body":{"type":"box","layout":"baseline","contents":[{"type":"image","url":"https://x/y.png"}]}}`,
		"action no uri":   `{"type":"bubble","body":{"type":"box","layout":"vertical","contents":[{"type":"button","action":{"type":"uri","label":"x"}}]}}`,
		"carousel empty":  `{"type":"carousel","contents":[]}`,
		"carousel nested": `{"type":"carousel","contents":[{"type":"carousel","contents":[]}]}`,
		"trailing data":   cafeJSON + ` garbage`,
		"two objects":     cafeJSON + cafeJSON,
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateJSON([]byte(doc)), ErrInvalidFlex)
		})
	}
}

func TestPrintAndIndent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, cafeBubble()))
	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \"type\": \"bubble\""))
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))

	out, err := Indent([]byte(cafeJSON))
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSuffix(buf.String(), "\n"), string(out))

	_, err = Export(nil)
	assert.Error(t, err)
}
