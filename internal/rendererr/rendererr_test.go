package rendererr

import (
	"errors"
	"testing"
)

func TestWithLayerPassesThroughNil(t *testing.T) {
	if err := WithLayer("sea", nil); err != nil {
		t.Fatalf("expected nil error to pass through unchanged, got %v", err)
	}
}

func TestWithLayerWrapsAndUnwraps(t *testing.T) {
	inner := errors.New("boom")
	wrapped := WithLayer("roads", inner)

	var re *RenderError
	if !errors.As(wrapped, &re) {
		t.Fatalf("expected a *RenderError, got %T", wrapped)
	}
	if re.Layer != "roads" {
		t.Fatalf("expected layer %q, got %q", "roads", re.Layer)
	}
	if !errors.Is(wrapped, inner) {
		t.Fatalf("expected errors.Is to find the wrapped cause")
	}
}

func TestDbErrorUnwraps(t *testing.T) {
	inner := errors.New("connection refused")
	err := &DbError{Query: "select 1", Err: inner}

	if !errors.Is(err, inner) {
		t.Fatalf("expected DbError to unwrap to its cause")
	}
}
