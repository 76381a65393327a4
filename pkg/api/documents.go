package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jakechorley/youth-roster-sync/pkg/core/model"
	"github.com/jakechorley/youth-roster-sync/pkg/core/services"
)

// Documents is the app document service
type Documents interface {
	ListFamilyMembers(ctx context.Context) ([]model.FamilyMember, error)
	SaveFamilyMember(ctx context.Context, member model.FamilyMember) (*model.FamilyMember, error)
	DeleteFamilyMember(ctx context.Context, id string) error
	GetProfile(ctx context.Context) (*model.UserProfile, error)
	SaveProfile(ctx context.Context, profile model.UserProfile) (*model.UserProfile, error)
	GetSettings(ctx context.Context) (*model.AppSettings, error)
	SaveSettings(ctx context.Context, settings model.AppSettings) (*model.AppSettings, error)
	UploadMedia(ctx context.Context, filename string, data []byte, contentType string) (string, error)
	ListMonthGallery(ctx context.Context, month string) ([]model.MemberMetadata, error)
}

// DocumentHandler serves the app-facing documents
type DocumentHandler struct {
	docs          Documents
	maxMediaBytes int64
	logger        *zap.Logger
}

func NewDocumentHandler(docs Documents, maxMediaBytes int64, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{docs: docs, maxMediaBytes: maxMediaBytes, logger: logger}
}

// documentError maps service errors to responses
func (h *DocumentHandler) documentError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return respondError(c, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, services.ErrNotFound):
		return respondError(c, http.StatusNotFound, "not_found", err.Error())
	default:
		h.logger.Error("Document request failed", zap.String("action", action), zap.Error(err))
		return internalError(c, "failed to "+action)
	}
}

func (h *DocumentHandler) ListFamilyMembers(c echo.Context) error {
	members, err := h.docs.ListFamilyMembers(c.Request().Context())
	if err != nil {
		return h.documentError(c, err, "list family members")
	}
	return respond(c, http.StatusOK, members)
}

func (h *DocumentHandler) SaveFamilyMember(c echo.Context) error {
	var member model.FamilyMember
	if err := c.Bind(&member); err != nil {
		return badRequest(c, "invalid request body")
	}

	saved, err := h.docs.SaveFamilyMember(c.Request().Context(), member)
	if err != nil {
		return h.documentError(c, err, "save family member")
	}
	return respond(c, http.StatusOK, saved)
}

func (h *DocumentHandler) DeleteFamilyMember(c echo.Context) error {
	if err := h.docs.DeleteFamilyMember(c.Request().Context(), c.Param("id")); err != nil {
		return h.documentError(c, err, "delete family member")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *DocumentHandler) GetProfile(c echo.Context) error {
	profile, err := h.docs.GetProfile(c.Request().Context())
	if err != nil {
		return h.documentError(c, err, "get profile")
	}
	return respond(c, http.StatusOK, profile)
}

func (h *DocumentHandler) SaveProfile(c echo.Context) error {
	var profile model.UserProfile
	if err := c.Bind(&profile); err != nil {
		return badRequest(c, "invalid request body")
	}

	saved, err := h.docs.SaveProfile(c.Request().Context(), profile)
	if err != nil {
		return h.documentError(c, err, "save profile")
	}
	return respond(c, http.StatusOK, saved)
}

func (h *DocumentHandler) GetSettings(c echo.Context) error {
	settings, err := h.docs.GetSettings(c.Request().Context())
	if err != nil {
		return h.documentError(c, err, "get settings")
	}
	return respond(c, http.StatusOK, settings)
}

func (h *DocumentHandler) SaveSettings(c echo.Context) error {
	var settings model.AppSettings
	if err := c.Bind(&settings); err != nil {
		return badRequest(c, "invalid request body")
	}

	saved, err := h.docs.SaveSettings(c.Request().Context(), settings)
	if err != nil {
		return h.documentError(c, err, "save settings")
	}
	return respond(c, http.StatusOK, saved)
}

func (h *DocumentHandler) ListGallery(c echo.Context) error {
	gallery, err := h.docs.ListMonthGallery(c.Request().Context(), c.Param("month"))
	if err != nil {
		return h.documentError(c, err, "list gallery")
	}
	return respond(c, http.StatusOK, gallery)
}

func (h *DocumentHandler) UploadMedia(c echo.Context) error {
	body := io.LimitReader(c.Request().Body, h.maxMediaBytes+1)
	data, err := io.ReadAll(body)
	if err != nil {
		return badRequest(c, "failed to read request body")
	}
	if int64(len(data)) > h.maxMediaBytes {
		return respondError(c, http.StatusRequestEntityTooLarge, "too_large", "media exceeds size limit")
	}

	path, err := h.docs.UploadMedia(c.Request().Context(), c.Param("filename"), data, c.Request().Header.Get(echo.HeaderContentType))
	if err != nil {
		return h.documentError(c, err, "upload media")
	}
	return respond(c, http.StatusCreated, map[string]string{"path": path})
}
