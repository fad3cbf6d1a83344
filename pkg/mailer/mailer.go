package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message is a fully rendered outbound email.
type Message struct {
	ToAddress string
	ToName    string
	Subject   string
	HTMLBody  string
	TextBody  string
}

// Result reports the provider's acceptance of a message.
type Result struct {
	ProviderMessageID string
}

// Sender delivers a single message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) (Result, error)
}

// LogSender writes messages to the structured log instead of a provider. It is
// the default transport for development and the CLI.
type LogSender struct {
	from   string
	logger *zap.Logger
}

// NewLogSender builds a log backed sender.
func NewLogSender(fromName, fromAddress string, logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	from := fromAddress
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromAddress)
	}
	return &LogSender{from: from, logger: logger}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, msg Message) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(msg.ToAddress) == "" {
		return Result{}, fmt.Errorf("recipient address required")
	}
	id := uuid.NewString()
	s.logger.Info("email dispatched",
		zap.String("provider_message_id", id),
		zap.String("from", s.from),
		zap.String("to", msg.ToAddress),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTMLBody)),
	)
	return Result{ProviderMessageID: id}, nil
}
