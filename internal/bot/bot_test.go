package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shohag/lineapi/internal/messaging"
	"github.com/shohag/lineapi/internal/models"
	"github.com/shohag/lineapi/internal/signing"
	"github.com/shohag/lineapi/internal/webhook"
)

type fakeReplier struct {
	tokens []string
	texts  []string
	err    error
}

func (f *fakeReplier) ReplyMessage(_ context.Context, token string, msgs []models.Message, _ ...messaging.SendOption) (*messaging.SendResponse, error) {
	f.tokens = append(f.tokens, token)
	for _, m := range msgs {
		f.texts = append(f.texts, m.(*models.TextMessage).Text)
	}
	return &messaging.SendResponse{}, f.err
}

func TestRespond(t *testing.T) {
	for in, want := range map[string]string{
		"hello":             "Hello! 👋 How can I help you today?",
		"  Good Morning ":   "Hello! 👋 How can I help you today?",
		"BYE":               "Goodbye! Have a great day! 🌟",
		"help":              helpText,
		"status":            "🟢 Bot is running perfectly!",
		"echo Hi There":     "🔄 You said: Hi There",
		"Echo keep case":    "🔄 You said: keep case",
		"reverse abc":       "🔄 Reversed: cba",
		"reverse こんにちは":     "🔄 Reversed: はちにんこ",
		"count two words":   "📊 Characters: 9, Words: 2",
		"what is this":      "Thanks for your message: 'what is this'\n💡 Try typing 'help' to see available commands!",
		"echoing":           "Thanks for your message: 'echoing'\n💡 Try typing 'help' to see available commands!",
	} {
		assert.Equal(t, want, Respond(in), in)
	}
}

func textEvent(text, token string) *models.Event {
	return &models.Event{
		Type:       models.EventMessage,
		ReplyToken: token,
		Source:     &models.Source{Type: models.SourceUser, UserID: "U1"},
		Message:    &models.MessageContent{ID: "1", Type: "text", Text: text},
	}
}

func TestHandleMessage(t *testing.T) {
	r := &fakeReplier{}
	b := New(r, zerolog.Nop())

	require.NoError(t, b.HandleMessage(context.Background(), textEvent("status", "rt-1")))
	require.NoError(t, b.HandleMessage(context.Background(), &models.Event{
		Type: models.EventMessage, ReplyToken: "rt-2",
		Message: &models.MessageContent{ID: "2", Type: "sticker", PackageID: "1", StickerID: "2"},
	}))
	require.NoError(t, b.HandleMessage(context.Background(), textEvent("hello", "")))

	assert.Equal(t, []string{"rt-1", "rt-2"}, r.tokens)
	assert.Equal(t, []string{"🟢 Bot is running perfectly!", nonTextReply}, r.texts)
}

func TestReplyErrorPropagates(t *testing.T) {
	r := &fakeReplier{err: errors.New("invalid reply token")}
	b := New(r, zerolog.Nop())
	err := b.HandleMessage(context.Background(), textEvent("hi", "rt"))
	assert.ErrorContains(t, err, "invalid reply token")
}

func TestRegisterWithWebhook(t *testing.T) {
	r := &fakeReplier{}
	h := webhook.NewHandler("secret", zerolog.Nop())
	New(r, zerolog.Nop()).Register(h)

	body := []byte(`{"destination":"U","events":[` +
		`{"type":"follow","timestamp":1,"source":{"type":"user","userId":"U1"},"replyToken":"rt-f"},` +
		`{"type":"message","timestamp":2,"source":{"type":"user","userId":"U1"},"replyToken":"rt-m","message":{"id":"1","type":"text","text":"echo ok"}}]}`)
	resp, err := h.HandleWebhook(context.Background(), body, signing.Sign("secret", body))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.ProcessedEvents)
	assert.Equal(t, []string{"rt-f", "rt-m"}, r.tokens)
	assert.Equal(t, "🔄 You said: ok", r.texts[1])
}
