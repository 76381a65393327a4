package gmailclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
	"time"
	"unicode/utf8"

	"google.golang.org/api/gmail/v1"
)

// EmailInterval is the minimum gap between two sends
const EmailInterval = 3 * time.Second

// SendEmail sends a plain-text email, waiting out the send interval first
func (c *Client) SendEmail(ctx context.Context, to []string, subject, body string) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	if !c.lastSendTime.IsZero() {
		if wait := c.sendInterval - time.Since(c.lastSendTime); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	message := buildMessage(c.sender, to, subject, body)
	gmailMessage := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(message)),
	}

	if _, err := c.service.Users.Messages.Send("me", gmailMessage).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	c.lastSendTime = time.Now()
	return nil
}

func buildMessage(from string, to []string, subject, body string) string {
	var b strings.Builder
	if from != "" {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", encodeSubject(subject))
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}

// encodeSubject keeps the first line of subject and Q-encodes it when it is not plain ASCII
func encodeSubject(subject string) string {
	if i := strings.IndexAny(subject, "\r\n"); i >= 0 {
		subject = subject[:i]
	}
	subject = strings.TrimSpace(subject)

	for i := 0; i < len(subject); i++ {
		if subject[i] >= utf8.RuneSelf {
			return mime.QEncoding.Encode("utf-8", subject)
		}
	}
	return subject
}
