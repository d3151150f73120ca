package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error wins", New(ErrInternal, http.StatusTeapot, "short and stout"), http.StatusTeapot},
		{"invalidf", Invalidf("limit %d", -1), http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("lookup: %w", ErrDocumentNotFound), http.StatusNotFound},
		{"unknown mode", ErrUnknownMode, http.StatusBadRequest},
		{"empty collection", ErrCollectionEmpty, http.StatusConflict},
		{"source", fmt.Errorf("%w: http://x", ErrSourceUnavailable), http.StatusBadGateway},
		{"timeout", ErrTimeout, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("HTTPStatusCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("handler: %w", Invalidf("query is empty"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("AppError does not unwrap to its sentinel")
	}
	if got := Invalidf("query is empty").Error(); got != "invalid input: query is empty" {
		t.Errorf("Error() = %q", got)
	}
}
