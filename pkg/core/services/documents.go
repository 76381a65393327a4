package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/youth-roster-sync/pkg/clients/storageclient"
	"github.com/jakechorley/youth-roster-sync/pkg/core/model"
)

// DocumentStore reads and writes whole JSON documents and media blobs
type DocumentStore interface {
	PutBytes(ctx context.Context, path string, data []byte, contentType string) error
	PutJSON(ctx context.Context, path string, v any) error
	GetJSON(ctx context.Context, path string, v any) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// DocumentService manages the app-facing documents stored next to the synced roster
// Every write replaces the whole document, concurrent writers overwrite each other
type DocumentService struct {
	store    DocumentStore
	logger   *zap.Logger
	validate *validator.Validate

	now func() time.Time
}

// NewDocumentService creates a document service
func NewDocumentService(store DocumentStore, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		store:    store,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
}

// ListFamilyMembers returns the family roster, empty when none has been saved
func (s *DocumentService) ListFamilyMembers(ctx context.Context) ([]model.FamilyMember, error) {
	var members []model.FamilyMember
	if err := s.store.GetJSON(ctx, storageclient.FamilyMembersPath, &members); err != nil {
		if errors.Is(err, storageclient.ErrNotFound) {
			return []model.FamilyMember{}, nil
		}
		return nil, fmt.Errorf("failed to read family members: %w", err)
	}
	if members == nil {
		members = []model.FamilyMember{}
	}
	return members, nil
}

// SaveFamilyMember inserts or replaces a member by id, assigning an id to new members
func (s *DocumentService) SaveFamilyMember(ctx context.Context, member model.FamilyMember) (*model.FamilyMember, error) {
	member.Name = strings.TrimSpace(member.Name)
	if err := s.validate.Struct(member); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	members, err := s.ListFamilyMembers(ctx)
	if err != nil {
		return nil, err
	}

	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	member.UpdatedAt = s.now().UTC()

	idx := slices.IndexFunc(members, func(m model.FamilyMember) bool { return m.ID == member.ID })
	if idx >= 0 {
		members[idx] = member
	} else {
		members = append(members, member)
	}

	if err := s.store.PutJSON(ctx, storageclient.FamilyMembersPath, members); err != nil {
		return nil, fmt.Errorf("failed to save family members: %w", err)
	}

	s.logger.Info("Saved family member", zap.String("id", member.ID), zap.Bool("created", idx < 0))
	return &member, nil
}

// DeleteFamilyMember removes the member with id from the roster
func (s *DocumentService) DeleteFamilyMember(ctx context.Context, id string) error {
	members, err := s.ListFamilyMembers(ctx)
	if err != nil {
		return err
	}

	idx := slices.IndexFunc(members, func(m model.FamilyMember) bool { return m.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: family member %s", ErrNotFound, id)
	}

	members = slices.Delete(members, idx, idx+1)
	if err := s.store.PutJSON(ctx, storageclient.FamilyMembersPath, members); err != nil {
		return fmt.Errorf("failed to save family members: %w", err)
	}

	s.logger.Info("Deleted family member", zap.String("id", id))
	return nil
}

// GetProfile returns the stored profile, or an empty one
func (s *DocumentService) GetProfile(ctx context.Context) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := s.store.GetJSON(ctx, storageclient.ProfilePath, &profile); err != nil {
		if errors.Is(err, storageclient.ErrNotFound) {
			return &model.UserProfile{}, nil
		}
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile replaces the stored profile
func (s *DocumentService) SaveProfile(ctx context.Context, profile model.UserProfile) (*model.UserProfile, error) {
	if err := s.validate.Struct(profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	profile.UpdatedAt = s.now().UTC()
	if err := s.store.PutJSON(ctx, storageclient.ProfilePath, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return &profile, nil
}

// GetSettings returns the stored settings, or the defaults
func (s *DocumentService) GetSettings(ctx context.Context) (*model.AppSettings, error) {
	settings := model.DefaultAppSettings()
	if err := s.store.GetJSON(ctx, storageclient.SettingsPath, &settings); err != nil {
		if errors.Is(err, storageclient.ErrNotFound) {
			defaults := model.DefaultAppSettings()
			return &defaults, nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings replaces the stored settings
func (s *DocumentService) SaveSettings(ctx context.Context, settings model.AppSettings) (*model.AppSettings, error) {
	if settings.Language == "" {
		settings.Language = model.DefaultAppSettings().Language
	}

	settings.UpdatedAt = s.now().UTC()
	if err := s.store.PutJSON(ctx, storageclient.SettingsPath, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return &settings, nil
}

// UploadMedia stores data under media/ and returns its object path
// The content type is sniffed when not given
func (s *DocumentService) UploadMedia(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	path, ok := storageclient.MediaPath(filename)
	if !ok {
		return "", fmt.Errorf("%w: unusable filename %q", ErrInvalidInput, filename)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty media", ErrInvalidInput)
	}

	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		contentType = mimetype.Detect(data).String()
	}

	if err := s.store.PutBytes(ctx, path, data, contentType); err != nil {
		return "", fmt.Errorf("failed to upload media: %w", err)
	}

	s.logger.Info("Uploaded media", zap.String("path", path), zap.String("content_type", contentType))
	return path, nil
}

// ListMonthGallery returns the metadata of every member synced under month, sorted by name
func (s *DocumentService) ListMonthGallery(ctx context.Context, month string) ([]model.MemberMetadata, error) {
	month = strings.ToLower(strings.TrimSpace(month))
	if month != unknownMonth && !slices.Contains(monthNames, month) {
		return nil, fmt.Errorf("%w: unknown month %q", ErrInvalidInput, month)
	}

	names, err := s.store.List(ctx, storageclient.MonthPrefix(month))
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery: %w", err)
	}

	gallery := []model.MemberMetadata{}
	for _, name := range names {
		if !storageclient.IsMetadataPath(name) {
			continue
		}

		var metadata model.MemberMetadata
		if err := s.store.GetJSON(ctx, name, &metadata); err != nil {
			s.logger.Warn("Skipping unreadable metadata", zap.String("path", name), zap.Error(err))
			continue
		}
		gallery = append(gallery, metadata)
	}

	sort.SliceStable(gallery, func(i, j int) bool {
		if gallery[i].Name != gallery[j].Name {
			return gallery[i].Name < gallery[j].Name
		}
		return gallery[i].ID < gallery[j].ID
	})

	return gallery, nil
}
