package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/unalkalkan/la5asni/internal/analysis"
	"github.com/unalkalkan/la5asni/internal/extraction"
	"github.com/unalkalkan/la5asni/internal/planner"
	"github.com/unalkalkan/la5asni/internal/provider"
	"github.com/unalkalkan/la5asni/internal/storage"
)

// Error codes returned in the error envelope. Plan validation failures use
// the planner's own codes.
const (
	CodeBadRequest        = "BAD_REQUEST"
	CodeNotFound          = "NOT_FOUND"
	CodePayloadTooLarge   = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeUnreadableDoc     = "UNREADABLE_DOCUMENT"
	CodeEmptyDocument     = "EMPTY_DOCUMENT"
	CodeProviderNotFound  = "PROVIDER_NOT_FOUND"
	CodeLLMFailure        = "LLM_FAILURE"
	CodeInvalidLLMOutput  = "INVALID_LLM_OUTPUT"
	CodeInternal          = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable code and a human readable message
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes v as the response body
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

func badRequest(w http.ResponseWriter, message string) {
	writeErrorCode(w, http.StatusBadRequest, CodeBadRequest, message)
}

// writeError maps err onto a status code and envelope. Unexpected errors
// are logged and reported without detail.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var validation *planner.ValidationError
	var tooLarge *http.MaxBytesError
	var input *inputError

	switch {
	case errors.As(err, &input):
		badRequest(w, input.msg)
	case errors.As(err, &validation):
		writeErrorCode(w, http.StatusBadRequest, validation.Code(), validation.Error())
	case errors.As(err, &tooLarge):
		writeErrorCode(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, err.Error())
	case errors.Is(err, extraction.ErrUnsupportedFormat):
		writeErrorCode(w, http.StatusUnsupportedMediaType, CodeUnsupportedFormat, err.Error())
	case errors.Is(err, extraction.ErrEmptyDocument):
		writeErrorCode(w, http.StatusUnprocessableEntity, CodeEmptyDocument, err.Error())
	case errors.Is(err, extraction.ErrUnreadableDocument):
		writeErrorCode(w, http.StatusUnprocessableEntity, CodeUnreadableDoc, err.Error())
	case errors.Is(err, provider.ErrProviderNotFound):
		writeErrorCode(w, http.StatusBadRequest, CodeProviderNotFound, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeErrorCode(w, http.StatusNotFound, CodeNotFound, "analysis not found")
	case errors.Is(err, provider.ErrInvalidOutput):
		logger.Warn("model returned unusable output", "error", err)
		writeErrorCode(w, http.StatusBadGateway, CodeInvalidLLMOutput, "the model returned an unusable response")
	case errors.Is(err, analysis.ErrLLMFailure):
		logger.Error("llm call failed", "error", err)
		writeErrorCode(w, http.StatusBadGateway, CodeLLMFailure, "the language model could not be reached")
	default:
		logger.Error("request failed", "error", err)
		writeErrorCode(w, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}
