package mediaclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/jakechorley/youth-roster-sync/pkg/core/model"
)

const (
	chunkSize        = 8 * 1024
	defaultMediaType = "image/jpeg"
	userAgent        = "youth-roster-sync/1.0"
)

var (
	// ErrFetch is wrapped by every error returned from Fetch
	ErrFetch        = errors.New("media fetch failed")
	ErrInvalidURL   = fmt.Errorf("%w: invalid url", ErrFetch)
	ErrHTMLResponse = fmt.Errorf("%w: received an html page instead of media", ErrFetch)
	ErrEmptyBody    = fmt.Errorf("%w: empty response body", ErrFetch)
	ErrTooLarge     = fmt.Errorf("%w: media exceeds size limit", ErrFetch)
)

// StatusError is returned when the media host answers with anything but 200
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: unexpected status %d", ErrFetch, e.Code)
}

func (e *StatusError) Unwrap() error {
	return ErrFetch
}

// Config holds download limits
type Config struct {
	ConnectTimeout time.Duration
	// ReadTimeout bounds the wait for response headers and for each body chunk
	ReadTimeout time.Duration
	MaxBytes    int64
}

// Client downloads member media over HTTP
type Client struct {
	httpClient  *http.Client
	readTimeout time.Duration
	maxBytes    int64
	logger      *zap.Logger
}

// NewClient creates a media client with its own transport and timeouts
func NewClient(cfg Config, logger *zap.Logger) *Client {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		MaxIdleConnsPerHost:   4,
	}

	return &Client{
		httpClient:  &http.Client{Transport: transport},
		readTimeout: cfg.ReadTimeout,
		maxBytes:    cfg.MaxBytes,
		logger:      logger,
	}
}

// IsFetchable reports whether rawURL looks like downloadable media
func (c *Client) IsFetchable(rawURL string) bool {
	return IsFetchable(rawURL)
}

// Fetch downloads the media behind rawURL, resolving share links first.
// The whole body is buffered in memory.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*model.MediaBlob, error) {
	direct := ResolveDirectURL(rawURL)

	parsed, err := url.Parse(direct)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("Downloading media", zap.String("url", parsed.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if isHTML(contentType) {
		return nil, ErrHTMLResponse
	}

	data, err := c.readBody(resp.Body, cancel)
	if err != nil {
		return nil, err
	}

	if isGenericType(contentType) {
		detected := mimetype.Detect(data)
		if detected.Is("text/html") {
			return nil, ErrHTMLResponse
		}
		contentType = detected.String()
	}

	c.logger.Debug("Downloaded media",
		zap.String("url", parsed.String()),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(data)))

	return &model.MediaBlob{
		Data:        data,
		ContentType: contentType,
		SourceURL:   rawURL,
	}, nil
}

// readBody copies the body in fixed-size chunks, cancelling the request if a chunk
// does not arrive within the read timeout
func (c *Client) readBody(body io.Reader, cancel context.CancelFunc) ([]byte, error) {
	var timer *time.Timer
	if c.readTimeout > 0 {
		timer = time.AfterFunc(c.readTimeout, cancel)
		defer timer.Stop()
	}

	var buf bytes.Buffer
	chunk := make([]byte, chunkSize)

	for {
		n, err := body.Read(chunk)
		if n > 0 {
			if timer != nil {
				timer.Reset(c.readTimeout)
			}
			if c.maxBytes > 0 && int64(buf.Len()+n) > c.maxBytes {
				return nil, ErrTooLarge
			}
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read body: %v", ErrFetch, err)
		}
	}

	if buf.Len() == 0 {
		return nil, ErrEmptyBody
	}

	return buf.Bytes(), nil
}

func isHTML(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "text/html")
}

func isGenericType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return ct == "" ||
		strings.HasPrefix(ct, "application/octet-stream") ||
		strings.HasPrefix(ct, "binary/octet-stream")
}

// InferImageContentType picks the content type for a stored photo: the source URL's
// extension wins, then a downloaded image/* type, then image/jpeg
func InferImageContentType(sourceURL, downloaded string) string {
	if parsed, err := url.Parse(sourceURL); err == nil {
		switch strings.ToLower(path.Ext(parsed.Path)) {
		case ".png":
			return "image/png"
		case ".gif":
			return "image/gif"
		case ".jpg", ".jpeg":
			return "image/jpeg"
		}
	}

	if strings.HasPrefix(strings.ToLower(downloaded), "image/") {
		return downloaded
	}

	return defaultMediaType
}
