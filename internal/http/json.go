package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/mydrops/storefront-edge/internal/errors"
)

// maxJSONBody bounds request bodies accepted by the same-origin API.
const maxJSONBody = 1 << 20

const msgInternal = "internal server error"

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))

	if err := dec.Decode(dst); err != nil {
		msg := "Request body must be valid JSON"
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			msg = "Request body too large"
		} else if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Message: msg})
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Message string
	Fields  map[string]string
}

type errorBody struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, errorBody{Error: p.Message, Code: p.ErrCode, Fields: p.Fields})
}

// WriteAppError maps err onto an HTTP error response. Backend failures that the
// user cannot act on are reported as a generic internal error.
func WriteAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal", Message: msgInternal})
		return
	}

	p := ErrorParams{Code: statusFor(appErr), ErrCode: string(appErr.Code), Message: appErr.Message}
	switch appErr.Code {
	case apperrors.ErrCodeValidation:
		p.Fields = appErr.Fields
	case apperrors.ErrCodeNetwork, apperrors.ErrCodeMalformedResponse, apperrors.ErrCodeInternal:
		p.ErrCode = string(apperrors.ErrCodeInternal)
		p.Message = msgInternal
	}
	WriteError(w, p)
}

func statusFor(e *apperrors.AppError) int {
	switch e.Code {
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeUnauthenticated, apperrors.ErrCodeInvalidToken:
		return http.StatusUnauthorized
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden
	case apperrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case apperrors.ErrCodeUpstream:
		if e.Status >= http.StatusBadRequest && e.Status <= 599 {
			return e.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
