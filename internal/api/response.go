package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/erazemk/trgovina/internal/model"
)

// Request is one operation call from the presentation shell.
type Request struct {
	ID     string          `json:"id"`
	Op     string          `json:"op"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response carries either a payload or a typed failure.
type Response struct {
	ID        string   `json:"id,omitempty"`
	Success   bool     `json:"success"`
	Data      any      `json:"data,omitempty"`
	Error     string   `json:"error,omitempty"`
	Code      string   `json:"code,omitempty"`
	Available *float64 `json:"available,omitempty"`
}

// Failure codes.
const (
	CodeBadRequest        = "bad_request"
	CodeValidation        = "validation_error"
	CodeNotFound          = "not_found"
	CodeInsufficientStock = "insufficient_stock"
	CodeImportFormat      = "import_format_error"
	CodeStorage           = "storage_failure"
)

// errBadRequest marks requests that could not be decoded or name no operation.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

type idResult struct {
	ID int64 `json:"id"`
}

type idParams struct {
	ID int64 `json:"id"`
}

func success(id string, data any) Response {
	return Response{ID: id, Success: true, Data: data}
}

func failure(id string, err error) Response {
	resp := Response{ID: id, Error: err.Error(), Code: errorCode(err)}
	var ise *model.InsufficientStockError
	if errors.As(err, &ise) {
		available := ise.Available
		resp.Available = &available
	}
	return resp
}

// errorCode maps err to its failure code. Import errors may wrap a
// validation error, so they are matched first.
func errorCode(err error) string {
	switch {
	case errors.Is(err, errBadRequest):
		return CodeBadRequest
	case errors.Is(err, model.ErrImportFormat):
		return CodeImportFormat
	case errors.Is(err, model.ErrValidation):
		return CodeValidation
	case errors.Is(err, model.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, model.ErrInsufficientStock):
		return CodeInsufficientStock
	default:
		return CodeStorage
	}
}

// decodeParams decodes the request parameters into target. Missing params
// decode as an empty object.
func decodeParams(raw json.RawMessage, target any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return badRequest("invalid params: %v", err)
	}
	return nil
}
