package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// ServiceAccountKey represents the fields of a Google service-account key file that
// are required before the key can be scoped
type ServiceAccountKey struct {
	Type         string `json:"type" validate:"required,eq=service_account"`
	ProjectID    string `json:"project_id" validate:"required"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key" validate:"required"`
	ClientEmail  string `json:"client_email" validate:"required,email"`
	ClientID     string `json:"client_id"`
	TokenURI     string `json:"token_uri" validate:"required,url"`
}

// LoadServiceAccountKey reads and validates a service-account key file
// Returns the raw JSON alongside the parsed key so callers can hand it to the Google auth libraries
func LoadServiceAccountKey(path string) ([]byte, *ServiceAccountKey, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("service account key path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read service account key: %w", err)
	}

	key, err := ParseServiceAccountKey(data)
	if err != nil {
		return nil, nil, err
	}

	return data, key, nil
}

// ParseServiceAccountKey parses and validates service-account key JSON
func ParseServiceAccountKey(data []byte) (*ServiceAccountKey, error) {
	var key ServiceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}

	if err := validate.Struct(&key); err != nil {
		return nil, fmt.Errorf("service account key validation failed: %w", err)
	}

	return &key, nil
}
