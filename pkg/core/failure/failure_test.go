package failure

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"kind only", &Error{Kind: IllegalQuery}, "IllegalQuery"},
		{"with message", New(TableNotFound, "table %s", "loan"), "TableNotFound: table loan"},
		{"with cause", Wrap(DatabaseOperationFailed, errors.New("gone away"), "commit"), "DatabaseOperationFailed: commit: gone away"},
		{"cause only", &Error{Kind: MissingParameter, Err: errors.New("x")}, "MissingParameter: x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_IsMatchesKindThroughWrapping(t *testing.T) {
	base := New(ColumnNotFound, "column amount")
	wrapped := fmt.Errorf("update failed: %w", base)

	if !errors.Is(wrapped, ErrColumnNotFound) {
		t.Error("expected errors.Is to match ColumnNotFound")
	}
	if errors.Is(wrapped, ErrTableNotFound) {
		t.Error("did not expect TableNotFound to match")
	}
	if !Is(wrapped, ColumnNotFound) {
		t.Error("Is(ColumnNotFound) should be true")
	}
	if got := KindOf(wrapped); got != ColumnNotFound {
		t.Errorf("KindOf() = %q, want %q", got, ColumnNotFound)
	}
}

func TestError_UnwrapReachesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(DatabaseOperationFailed, cause, "execute")

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
	if got := KindOf(nil); got != "" {
		t.Errorf("KindOf(nil) = %q, want empty", got)
	}
}
