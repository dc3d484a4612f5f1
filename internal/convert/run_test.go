package convert

import (
	"context"
	"errors"
	"testing"

	"github.com/brandonscript/auto-m4b/internal/bookerr"
	"github.com/brandonscript/auto-m4b/internal/config"
)

func TestRun_MissingBinaryIsFatal(t *testing.T) {
	b := testBook(t)
	cfg := config.Defaults()
	cfg.M4BToolBin = "definitely-not-a-real-binary-xyz"

	_, err := Run(context.Background(), b, cfg)
	if err == nil {
		t.Fatal("expected an error for a missing converter binary")
	}
	var fe *bookerr.FatalProcessError
	if !errors.As(err, &fe) {
		t.Errorf("expected a FatalProcessError, got %T: %v", err, err)
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("one\ntwo\nthree"); got != "one" {
		t.Errorf("firstLine = %q, want %q", got, "one")
	}
	if got := firstLine("single"); got != "single" {
		t.Errorf("firstLine = %q, want %q", got, "single")
	}
}
