package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"auto_social_publisher/failure"
)

// telegram rejects photo captions longer than this
const maxCaptionRunes = 1024

// Telegram posts the preview image and caption to a chat through a bot.
type Telegram struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	channel string
	logger  *zap.Logger
}

// NewTelegram connects the bot. chatID is a numeric id or an @channel name;
// endpoint defaults to the public Bot API.
func NewTelegram(token, chatID, endpoint string, client *http.Client, logger *zap.Logger) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: telegram bot token missing", failure.ErrAuth)
	}
	t := &Telegram{}
	if strings.HasPrefix(chatID, "@") {
		t.channel = chatID
	} else {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: telegram chat id %q", ErrInvalidRecipient, chatID)
		}
		t.chatID = id
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("%w: telegram: %w", failure.ErrAuth, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t.bot = bot
	t.logger = logger.Named("telegram")
	return t, nil
}

func (t *Telegram) Notify(ctx context.Context, p Preview) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(t.chatID, tgbotapi.FileURL(p.ImageURL))
	if t.channel != "" {
		photo.ChannelUsername = t.channel
	}
	text := Subject(p.Title) + "\n\n" + p.Caption
	if p.ReviewURL != "" {
		text += "\n\n" + p.ReviewURL
	}
	photo.Caption = truncateRunes(text, maxCaptionRunes)

	msg, err := t.bot.Send(photo)
	if err != nil {
		return fmt.Errorf("%w: telegram send: %w", failure.ErrTransport, err)
	}
	t.logger.Info("approval preview sent", zap.Int("message_id", msg.MessageID))
	return nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
