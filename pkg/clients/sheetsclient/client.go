package sheetsclient

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/jakechorley/youth-roster-sync/pkg/utils"
)

// ErrInvalidSpreadsheet is returned when a URL does not point at a readable spreadsheet
var ErrInvalidSpreadsheet = errors.New("invalid or unreachable spreadsheet")

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// CredentialSource provides scoped Google credentials
type CredentialSource interface {
	Get(ctx context.Context, kind utils.CredentialKind) (*google.Credentials, error)
}

// Client wraps the Google Sheets API client
// The underlying service is created on first use so a missing credential only fails the calls that need it
type Client struct {
	credentials CredentialSource
	sheetRange  string
	logger      *zap.Logger

	mu      sync.Mutex
	service *sheets.Service
}

// NewClient creates a new Sheets client that authenticates with the read-only sheets service account
func NewClient(credentials CredentialSource, sheetRange string, logger *zap.Logger) *Client {
	return &Client{
		credentials: credentials,
		sheetRange:  sheetRange,
		logger:      logger,
	}
}

// NewClientFromService creates a Sheets client around an existing service
func NewClientFromService(service *sheets.Service, sheetRange string, logger *zap.Logger) *Client {
	return &Client{
		service:    service,
		sheetRange: sheetRange,
		logger:     logger,
	}
}

// Service returns the underlying sheets service, creating it if needed
func (c *Client) Service(ctx context.Context) (*sheets.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.service != nil {
		return c.service, nil
	}

	creds, err := c.credentials.Get(ctx, utils.KindSheets)
	if err != nil {
		return nil, err
	}

	service, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create sheets service: %v", utils.ErrCredential, err)
	}

	c.service = service
	return service, nil
}

// ExtractSpreadsheetID returns the spreadsheet ID embedded in a Google Sheets URL
func ExtractSpreadsheetID(url string) (string, bool) {
	match := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(match) < 2 {
		return "", false
	}
	return match[1], true
}

// ValidateURL checks that url points at a spreadsheet the service account can read
func (c *Client) ValidateURL(ctx context.Context, url string) error {
	spreadsheetID, ok := ExtractSpreadsheetID(url)
	if !ok {
		return fmt.Errorf("%w: no spreadsheet id in %q", ErrInvalidSpreadsheet, url)
	}

	service, err := c.Service(ctx)
	if err != nil {
		return err
	}

	if _, err := service.Spreadsheets.Get(spreadsheetID).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		c.logger.Debug("Spreadsheet validation failed", zap.String("spreadsheet_id", spreadsheetID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}

	return nil
}

// GetValues reads values from a spreadsheet range
func (c *Client) GetValues(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error) {
	service, err := c.Service(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := service.Spreadsheets.Values.Get(spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get values: %w", err)
	}

	return resp.Values, nil
}
