package chat_test

import (
	"testing"

	"github.com/m-mizutani/citizen/pkg/usecase/chat"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

func TestIsCacheNotFoundError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "not found",
			err:      genai.APIError{Code: 404, Status: "NOT_FOUND", Message: "CachedContent not found"},
			expected: true,
		},
		{
			name:     "permission denied on cache",
			err:      genai.APIError{Code: 403, Status: "PERMISSION_DENIED", Message: "CachedContent not found (or permission denied)"},
			expected: true,
		},
		{
			name:     "wrapped",
			err:      goerr.Wrap(genai.APIError{Code: 404, Status: "NOT_FOUND"}, "failed to generate content"),
			expected: true,
		},
		{
			name:     "permission denied on project",
			err:      genai.APIError{Code: 403, Status: "PERMISSION_DENIED", Message: "API key not valid"},
			expected: false,
		},
		{
			name:     "token limit",
			err:      genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "The input token count (2500030) exceeds the maximum number of tokens allowed (1048576)."},
			expected: false,
		},
		{
			name:     "not an API error",
			err:      goerr.New("connection reset"),
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, chat.IsCacheNotFoundError(tc.err), tc.expected)
		})
	}
}
