package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ReceiversErrorBadRequest       = "RECEIVERS_BAD_REQUEST"
	ReceiversErrorUnauthorized     = "RECEIVERS_UNAUTHORIZED"
	ReceiversErrorNotFound         = "RECEIVERS_NOT_FOUND"
	ReceiversErrorMethodNotAllowed = "RECEIVERS_METHOD_NOT_ALLOWED"
	ReceiversErrorUnsupportedMedia = "RECEIVERS_UNSUPPORTED_MEDIA"
	ReceiversErrorConfigFatal      = "RECEIVERS_CONFIG_FATAL"
	ReceiversErrorInternal         = "RECEIVERS_INTERNAL_ERROR"
)

// ConfigFatalError builds the deployment-defect envelope: secret missing or
// out of bounds when the scheme requires one. Never mapped to a 4xx.
func ConfigFatalError(message string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ReceiversErrorConfigFatal)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// IsConfigFatal reports whether err carries the configuration-defect text
// code, letting hosts fail fast instead of replying with a request error.
func IsConfigFatal(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == ReceiversErrorConfigFatal
}

// ReceiverErrorMapper normalizes arbitrary errors into the module's
// envelope: category defaults, HTTP code, and text code filled in.
func ReceiverErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureReceiverErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "not registered"), strings.Contains(msg, "unknown receiver"):
		return newReceiverError(err.Error(), goerrors.CategoryNotFound, ReceiversErrorNotFound)
	case strings.Contains(msg, "signature"), strings.Contains(msg, "secret"), strings.Contains(msg, "code"):
		return newReceiverError(err.Error(), goerrors.CategoryAuth, ReceiversErrorUnauthorized)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newReceiverError(err.Error(), goerrors.CategoryBadInput, ReceiversErrorBadRequest)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureReceiverErrorEnvelope(mapped)
}

func newReceiverError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureReceiverErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureReceiverErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = receiverHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultReceiverTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultReceiverTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ReceiversErrorBadRequest
	case goerrors.CategoryAuth:
		return ReceiversErrorUnauthorized
	case goerrors.CategoryNotFound:
		return ReceiversErrorNotFound
	default:
		return ReceiversErrorInternal
	}
}

func receiverHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
