package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/mail"

	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"auto_social_publisher/failure"
	"auto_social_publisher/gauth"
)

// ErrInvalidRecipient is returned when the approval address does not parse.
var ErrInvalidRecipient = errors.New("invalid approval recipient")

// Notifier sends a preview somewhere a human will look at it.
type Notifier interface {
	Notify(ctx context.Context, p Preview) error
}

// Recipient picks the approval address. Older setups only had the chat id
// variable and put an address in it; that still works but is logged.
func Recipient(emailTo, telegramChatID string, logger *zap.Logger) string {
	if emailTo != "" {
		return emailTo
	}
	if telegramChatID != "" && logger != nil {
		logger.Warn("APPROVAL_EMAIL unset, using TELEGRAM_CHAT_ID as the mail recipient",
			zap.String("recipient", telegramChatID))
	}
	return telegramChatID
}

// Gmail sends the preview as an HTML mail from the authorized account.
type Gmail struct {
	creds    gauth.CredentialSource
	endpoint string
	to       string
	logger   *zap.Logger
}

func NewGmail(creds gauth.CredentialSource, endpoint, to string, logger *zap.Logger) (*Gmail, error) {
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidRecipient, to, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gmail{creds: creds, endpoint: endpoint, to: addr.String(), logger: logger.Named("gmail")}, nil
}

func (g *Gmail) Notify(ctx context.Context, p Preview) error {
	html, err := RenderPreview(p)
	if err != nil {
		return err
	}
	client, err := g.creds.Client(ctx)
	if err != nil {
		return err
	}
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("gmail: create service: %w", err)
	}

	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(buildMessage(g.to, Subject(p.Title), html))}
	sent, err := svc.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: gmail send: %w", failure.ErrTransport, err)
	}
	g.logger.Info("approval mail sent", zap.String("to", g.to), zap.String("message_id", sent.Id))
	return nil
}

// buildMessage writes a single-part HTML message with a base64 body.
func buildMessage(to, subject, html string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")

	enc := base64.StdEncoding.EncodeToString([]byte(html))
	for len(enc) > 76 {
		b.WriteString(enc[:76])
		b.WriteString("\r\n")
		enc = enc[76:]
	}
	b.WriteString(enc)
	b.WriteString("\r\n")
	return b.Bytes()
}
