package gmailclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Client sends sync summaries through the Gmail API
type Client struct {
	service    *gmail.Service
	sender     string
	recipients []string
	logger     *zap.Logger

	sendInterval time.Duration
	lastSendTime time.Time
	sendMutex    sync.Mutex
}

// NewClient creates a Gmail client from a service-account key with domain-wide delegation,
// sending as sender
func NewClient(ctx context.Context, keyJSON []byte, sender string, recipients []string, logger *zap.Logger) (*Client, error) {
	jwtConfig, err := google.JWTConfigFromJSON(keyJSON, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gmail service account key: %w", err)
	}
	jwtConfig.Subject = sender

	service, err := gmail.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return NewClientFromService(service, sender, recipients, logger), nil
}

// NewClientFromService creates a Gmail client around an existing service
func NewClientFromService(service *gmail.Service, sender string, recipients []string, logger *zap.Logger) *Client {
	return &Client{
		service:      service,
		sender:       sender,
		recipients:   recipients,
		logger:       logger,
		sendInterval: EmailInterval,
	}
}
