package utils

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/oauth2/google"

	"github.com/jakechorley/youth-roster-sync/internal/config"
)

// CredentialKind selects which bundled service account and scope set to use
type CredentialKind string

const (
	KindSheets  CredentialKind = "sheets"
	KindStorage CredentialKind = "storage"
)

// OAuth scopes for Google APIs
const (
	ScopeSheetsReadonly   = "https://www.googleapis.com/auth/spreadsheets.readonly"
	ScopeStorageReadWrite = "https://www.googleapis.com/auth/devstorage.read_write"
)

// ErrCredential is returned when a service-account credential cannot be loaded or scoped
var ErrCredential = errors.New("credential unavailable")

// scopesFor returns the scopes granted to each credential kind
func scopesFor(kind CredentialKind) ([]string, error) {
	switch kind {
	case KindSheets:
		return []string{ScopeSheetsReadonly}, nil
	case KindStorage:
		return []string{ScopeStorageReadWrite}, nil
	default:
		return nil, fmt.Errorf("%w: unknown credential kind %q", ErrCredential, kind)
	}
}

// KeyLoader returns the raw service-account JSON for a credential kind
type KeyLoader func(kind CredentialKind) ([]byte, error)

// CredentialProvider loads and caches scoped service-account credentials per kind.
// The first successful credential for a kind is kept for the provider's lifetime.
type CredentialProvider struct {
	load KeyLoader

	mu    sync.Mutex
	cache map[CredentialKind]*google.Credentials
}

// NewCredentialProvider creates a provider that reads keys with the given loader
func NewCredentialProvider(load KeyLoader) *CredentialProvider {
	return &CredentialProvider{
		load:  load,
		cache: make(map[CredentialKind]*google.Credentials),
	}
}

// NewFileCredentialProvider creates a provider backed by the key files in the credentials config
func NewFileCredentialProvider(cfg config.CredentialsConfig) *CredentialProvider {
	paths := map[CredentialKind]string{
		KindSheets:  cfg.SheetsKeyFile,
		KindStorage: cfg.StorageKeyFile,
	}

	return NewCredentialProvider(func(kind CredentialKind) ([]byte, error) {
		path, ok := paths[kind]
		if !ok {
			return nil, fmt.Errorf("no key file configured for %q", kind)
		}
		data, _, err := config.LoadServiceAccountKey(path)
		return data, err
	})
}

// Get returns the scoped credential for kind, loading it on first use.
// Failed loads are not cached so a later call may succeed once the key is fixed.
func (p *CredentialProvider) Get(ctx context.Context, kind CredentialKind) (*google.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if creds, ok := p.cache[kind]; ok {
		return creds, nil
	}

	scopes, err := scopesFor(kind)
	if err != nil {
		return nil, err
	}

	data, err := p.load(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load %s key: %v", ErrCredential, kind, err)
	}

	// Key structure is validated before scoping so malformed secrets fail here rather than on first API call
	if _, err := config.ParseServiceAccountKey(data); err != nil {
		return nil, fmt.Errorf("%w: invalid %s key: %v", ErrCredential, kind, err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scope %s credentials: %v", ErrCredential, kind, err)
	}

	p.cache[kind] = creds
	return creds, nil
}

// Clear drops all cached credentials
func (p *CredentialProvider) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[CredentialKind]*google.Credentials)
}
