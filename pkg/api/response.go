package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, apiResponse{Data: data})
}

func respondError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, apiResponse{Error: &errorBody{Code: code, Message: message}})
}

func badRequest(c echo.Context, message string) error {
	return respondError(c, http.StatusBadRequest, "bad_request", message)
}

func internalError(c echo.Context, message string) error {
	return respondError(c, http.StatusInternalServerError, "internal_error", message)
}
