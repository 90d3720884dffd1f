package errors

import (
	"errors"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "artifact not found")
		if err.Error() != "[NOT_FOUND] artifact not found" {
			t.Errorf("unexpected message: %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("disk full")
		err := Wrap(original, CodeOutputError, "write structure artifact")
		expected := "[OUTPUT_ERROR] write structure artifact: disk full"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeParseFailed, "syntax error")
		if !IsCode(err, CodeParseFailed) {
			t.Error("expected IsCode to match CodeParseFailed")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode not to match CodeNotFound")
		}
	})

	t.Run("Unwrap", func(t *testing.T) {
		inner := errors.New("inner")
		err := Wrap(inner, CodeInternal, "outer")
		if !errors.Is(err, inner) {
			t.Error("expected errors.Is to find the wrapped error")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := New(CodeUndecodable, "cannot decode")
		err = AddContext(err, CtxPath, "a.py")
		var de *DomainError
		if !errors.As(err, &de) {
			t.Fatal("expected DomainError")
		}
		if de.Context[CtxPath] != "a.py" {
			t.Errorf("expected context path a.py, got %v", de.Context[CtxPath])
		}
	})
}

func TestRecoverable(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want bool
	}{
		{CodeParseFailed, true},
		{CodeFileTooLarge, true},
		{CodeUndecodable, true},
		{CodeNotFound, true},
		{CodeOutputError, false},
		{CodeInternal, false},
	}
	for _, tc := range cases {
		if got := Recoverable(New(tc.code, "x")); got != tc.want {
			t.Errorf("Recoverable(%s) = %v, want %v", tc.code, got, tc.want)
		}
	}
}
