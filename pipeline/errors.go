package pipeline

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-receivers/core"
)

func pipelineError(
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func pipelineBadInput(message string, metadata map[string]any) error {
	return pipelineError(
		message,
		goerrors.CategoryBadInput,
		http.StatusBadRequest,
		core.ReceiversErrorBadRequest,
		metadata,
	)
}

func pipelineNotFound(message string, metadata map[string]any) error {
	return pipelineError(
		message,
		goerrors.CategoryNotFound,
		http.StatusNotFound,
		core.ReceiversErrorNotFound,
		metadata,
	)
}

func pipelineMethodNotAllowed(message string, metadata map[string]any) error {
	return pipelineError(
		message,
		goerrors.CategoryBadInput,
		http.StatusMethodNotAllowed,
		core.ReceiversErrorMethodNotAllowed,
		metadata,
	)
}

func pipelineUnsupportedMedia(message string, metadata map[string]any) error {
	return pipelineError(
		message,
		goerrors.CategoryBadInput,
		http.StatusUnsupportedMediaType,
		core.ReceiversErrorUnsupportedMedia,
		metadata,
	)
}

func pipelineInternal(message string, metadata map[string]any) error {
	return pipelineError(
		message,
		goerrors.CategoryInternal,
		http.StatusInternalServerError,
		core.ReceiversErrorInternal,
		metadata,
	)
}
