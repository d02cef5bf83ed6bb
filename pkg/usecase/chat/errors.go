package chat

import (
	"errors"
	"strings"

	"github.com/m-mizutani/citizen/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// ErrContextTooLarge is returned when the active documents and history do not
// fit in the main model input
var ErrContextTooLarge = goerr.New("context exceeds the model input limit, try a narrower question or lower max_documents")

// isTokenLimitError checks if the error is due to token limit exceeded
func isTokenLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	// Example: "The input token count (2500030) exceeds the maximum number of tokens allowed (1048576)."
	return apiErr.Code == 400 &&
		apiErr.Status == "INVALID_ARGUMENT" &&
		strings.HasPrefix(apiErr.Message, "The input token count (") &&
		strings.Contains(apiErr.Message, ") exceeds the maximum number of tokens allowed (")
}

// generationError wraps a main model failure. Token limit errors are mapped
// to ErrContextTooLarge.
func generationError(err error, msg string, documents []model.DocumentID) error {
	if isTokenLimitError(err) {
		return goerr.Wrap(ErrContextTooLarge, msg, goerr.V("documents", documents), goerr.V("cause", err.Error()))
	}
	return goerr.Wrap(err, msg, goerr.V("documents", documents))
}

// isCacheNotFoundError checks if the request named a context cache that has
// expired or been deleted
func isCacheNotFoundError(err error) bool {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	// Example: "CachedContent not found (or permission denied)"
	switch {
	case apiErr.Code == 404 || apiErr.Status == "NOT_FOUND":
		return true
	case apiErr.Code == 403 && strings.Contains(apiErr.Message, "CachedContent"):
		return true
	default:
		return false
	}
}
