// Package bot is a small command bot that answers text messages through
// the reply API. It backs the serve command.
package bot

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/shohag/lineapi/internal/messaging"
	"github.com/shohag/lineapi/internal/models"
	"github.com/shohag/lineapi/internal/webhook"
)

const nonTextReply = "I can only handle text messages for now."

const helpText = "🤖 Available commands:\n" +
	"• hello - Greet the bot\n" +
	"• help - Show this help message\n" +
	"• status - Check bot status\n" +
	"• echo <text> - Repeat your text\n" +
	"• reverse <text> - Reverse your text\n" +
	"• count <text> - Count characters and words\n" +
	"• bye - Say goodbye"

var (
	greetings = map[string]bool{"hello": true, "hi": true, "hey": true, "good morning": true, "good evening": true}
	farewells = map[string]bool{"bye": true, "goodbye": true, "see you": true, "good night": true}
)

// Replier is satisfied by *messaging.Client.
type Replier interface {
	ReplyMessage(ctx context.Context, replyToken string, messages []models.Message, opts ...messaging.SendOption) (*messaging.SendResponse, error)
}

type Bot struct {
	replier Replier
	log     zerolog.Logger
}

func New(replier Replier, log zerolog.Logger) *Bot {
	return &Bot{replier: replier, log: log.With().Str("component", "bot").Logger()}
}

// Register attaches the bot's handlers to h.
func (b *Bot) Register(h *webhook.Handler) {
	h.OnMessage(b.HandleMessage)
	h.OnFollow(b.HandleFollow)
}

func (b *Bot) HandleMessage(ctx context.Context, ev *models.Event) error {
	if ev.Message == nil {
		return nil
	}
	if !ev.Message.IsText() {
		b.log.Info().Str("user_id", ev.UserID()).Str("message_type", ev.Message.Type).Msg("received non-text message")
		return b.reply(ctx, ev, nonTextReply)
	}

	b.log.Info().Str("user_id", ev.UserID()).Str("text", ev.Message.Text).Msg("received text")
	return b.reply(ctx, ev, Respond(ev.Message.Text))
}

func (b *Bot) HandleFollow(ctx context.Context, ev *models.Event) error {
	return b.reply(ctx, ev, "Thanks for adding me! 🎉 Type 'help' to see what I can do.")
}

func (b *Bot) reply(ctx context.Context, ev *models.Event, text string) error {
	if ev.ReplyToken == "" {
		return nil
	}
	_, err := b.replier.ReplyMessage(ctx, ev.ReplyToken, []models.Message{models.NewTextMessage(text)})
	if err != nil {
		return fmt.Errorf("reply to %s: %w", ev.UserID(), err)
	}
	return nil
}

// Respond maps a user's text to the bot's answer.
func Respond(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))

	switch {
	case greetings[lower]:
		return "Hello! 👋 How can I help you today?"
	case farewells[lower]:
		return "Goodbye! Have a great day! 🌟"
	case lower == "help":
		return helpText
	case lower == "status":
		return "🟢 Bot is running perfectly!"
	}

	if arg, ok := command(text, "echo"); ok {
		return "🔄 You said: " + arg
	}
	if arg, ok := command(text, "reverse"); ok {
		return "🔄 Reversed: " + reverse(arg)
	}
	if arg, ok := command(text, "count"); ok {
		return fmt.Sprintf("📊 Characters: %d, Words: %d", utf8.RuneCountInString(arg), len(strings.Fields(arg)))
	}

	return fmt.Sprintf("Thanks for your message: '%s'\n💡 Try typing 'help' to see available commands!", text)
}

// command matches "name <arg>" case-insensitively, keeping arg as typed.
func command(text, name string) (string, bool) {
	trimmed := strings.TrimLeft(text, " \t")
	prefix := name + " "
	if len(trimmed) < len(prefix) || !strings.EqualFold(trimmed[:len(prefix)], prefix) {
		return "", false
	}
	return trimmed[len(prefix):], true
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
