package procerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfClassifiedError(t *testing.T) {
	err := New(KindNotFound, "process %d not found", 42)
	if got := KindOf(err); got != KindNotFound {
		t.Fatalf("KindOf = %q, want %q", got, KindNotFound)
	}
	if err.Error() != "process 42 not found" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestKindOfWrappedError(t *testing.T) {
	cause := errors.New("operation not permitted")
	err := Wrap(KindPermission, cause, "signal pid %d", 7)

	if got := KindOf(err); got != KindPermission {
		t.Fatalf("KindOf = %q, want %q", got, KindPermission)
	}
	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause should survive errors.Is")
	}
	if err.Error() != "signal pid 7: operation not permitted" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestKindOfSurvivesFurtherWrapping(t *testing.T) {
	err := fmt.Errorf("kill request: %w", New(KindProtected, "pid 1 is protected"))
	if got := KindOf(err); got != KindProtected {
		t.Fatalf("KindOf through fmt.Errorf = %q, want %q", got, KindProtected)
	}
	if !IsKind(err, KindProtected) {
		t.Fatal("IsKind should match through wrapping")
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != "" {
		t.Fatalf("KindOf(plain) = %q, want empty", got)
	}
	if got := KindOf(nil); got != "" {
		t.Fatalf("KindOf(nil) = %q, want empty", got)
	}
}
