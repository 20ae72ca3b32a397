package errors

import (
	"fmt"
	"testing"
)

func TestRegisterDuplicateCodePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("reusing an error code must panic")
		}
	}()
	// Code 2 is already taken by ErrUnauthorized.
	Register(2, "duplicate code")
}

func TestErrIs(t *testing.T) {
	cases := map[string]struct {
		kind    *Error
		err     error
		wantIs  bool
	}{
		"instance of the same root": {
			kind:   ErrUnauthorized,
			err:    ErrUnauthorized,
			wantIs: true,
		},
		"wrapped instance of the same root": {
			kind:   ErrUnauthorized,
			err:    Wrap(ErrUnauthorized, "auth failed"),
			wantIs: true,
		},
		"deeply wrapped instance of the same root": {
			kind:   ErrState,
			err:    Wrap(Wrap(ErrState, "inner"), "outer"),
			wantIs: true,
		},
		"different root": {
			kind:   ErrUnauthorized,
			err:    ErrNotFound,
			wantIs: false,
		},
		"stdlib error": {
			kind:   ErrUnauthorized,
			err:    fmt.Errorf("not a registered error"),
			wantIs: false,
		},
		"nil error": {
			kind:   ErrUnauthorized,
			err:    nil,
			wantIs: false,
		},
		"nil kind matches nil error": {
			kind:   nil,
			err:    nil,
			wantIs: true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := tc.kind.Is(tc.err); got != tc.wantIs {
				t.Fatalf("want %v, got %v", tc.wantIs, got)
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, "no error here"); err != nil {
		t.Fatalf("wrapping nil must return nil, got %+v", err)
	}
}

func TestWrapPreservesMessage(t *testing.T) {
	err := Wrap(ErrOverflow, "balance update")
	const want = "balance update: an operation cannot be completed due to value overflow"
	if got := err.Error(); got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestRecover(t *testing.T) {
	var err error
	func() {
		defer Recover(&err)
		panic("boom")
	}()
	if !ErrPanic.Is(err) {
		t.Fatalf("want ErrPanic, got %+v", err)
	}
}
