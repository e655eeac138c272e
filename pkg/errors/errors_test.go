package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCode(t *testing.T) {
	meta := MetadataFor(CodeStateConflict)
	if meta.HTTPStatus != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status %d", meta.HTTPStatus)
	}
	if !meta.DetailsAllowed {
		t.Fatal("state conflict should allow details")
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("WHATEVER"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeDependency, cause, "query failed")
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause in chain")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsCodedErrorInChain(t *testing.T) {
	inner := New(CodeNotFound, "booking not found")
	wrapped := fmt.Errorf("handler: %w", inner)
	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected coded error")
	}
	if typed.Code() != CodeNotFound {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestDumpCapturesChain(t *testing.T) {
	err := Wrap(CodeInternal, errors.New("root"), "outer")
	dump := Dump(err)
	if dump.Code != CodeInternal {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(dump.Chain))
	}
}
