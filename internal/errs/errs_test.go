package errs

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapPreservesChain(t *testing.T) {
	root := errors.New("record not found")
	wrapped := Wrap(root, "query request")

	if !errors.Is(wrapped, root) {
		t.Fatalf("expected errors.Is to find root cause")
	}
	if got := wrapped.Error(); got != "query request: record not found" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "anything") != nil {
		t.Fatalf("wrapping nil must stay nil")
	}
	if Wrapf(nil, "anything %d", 1) != nil {
		t.Fatalf("wrapping nil must stay nil")
	}
}

func TestWithStackCapturesOnce(t *testing.T) {
	root := errors.New("boom")
	first := WithStack(root)
	second := WithStack(Wrap(first, "outer"))

	var se *StackError
	if !errors.As(second, &se) {
		t.Fatalf("expected stack error in chain")
	}
	if len(se.Stack()) == 0 {
		t.Fatalf("expected captured stack")
	}
	if StackText(second) == "" {
		t.Fatalf("expected stack text from chain")
	}
	// Second WithStack on an already-stacked chain must not re-wrap.
	if _, ok := second.(*StackError); ok {
		t.Fatalf("stack must not be captured twice")
	}
}

func TestNameUsesRootCause(t *testing.T) {
	root := errors.New("classifier transport failure: dial tcp refused")
	wrapped := Wrap(Wrap(root, "analyze content"), "submit")

	if got := Name(wrapped); got != "classifier transport failure" {
		t.Fatalf("unexpected name: %q", got)
	}
	if Name(nil) != "" {
		t.Fatalf("nil error must have empty name")
	}
}

func TestErrorChainStrings(t *testing.T) {
	root := errors.New("inner")
	wrapped := Wrap(root, "outer")

	chain := ErrorChainStrings(wrapped)
	if len(chain) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(chain))
	}
	if !strings.HasPrefix(chain[0], "outer") || chain[1] != "inner" {
		t.Fatalf("unexpected chain: %v", chain)
	}
}
