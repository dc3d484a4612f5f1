package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/brandonscript/auto-m4b/internal/book"
	"github.com/brandonscript/auto-m4b/internal/bookerr"
	"github.com/brandonscript/auto-m4b/internal/classify"
	"github.com/brandonscript/auto-m4b/internal/config"
	"github.com/brandonscript/auto-m4b/internal/util"
)

// RouteOutcome is the decision the received→validated transition (rule
// 1) reaches for one candidate directory: load inputs, branch per item,
// emit one decision with a human-readable reason — but for a single
// book rather than a batch of planned file moves.
type RouteOutcome string

const (
	RouteValidated   RouteOutcome = "validated"
	RouteQuarantined RouteOutcome = "quarantined"
	RouteSkipped     RouteOutcome = "skipped"
	RouteFailed      RouteOutcome = "failed"
)

// RouteDecision is the result of Route: what to do with a book and why.
// A flat_nested book has already been flattened by Route itself.
type RouteDecision struct {
	Outcome RouteOutcome
	Reason  string
}

// Route re-classifies b.Root(book.StageInbox) and decides whether the
// book is ready to proceed to the backup stage, needs quarantining, or
// should be skipped this tick, per rule 1. It mutates b in
// place when flattening a flat_nested layout.
func Route(b *book.Audiobook, cfg *config.Config, exts book.ExtensionSet) (RouteDecision, error) {
	inbox := b.Root(book.StageInbox)

	if _, err := os.Stat(b.Root(book.StageFix)); err == nil {
		return RouteDecision{
			Outcome: RouteSkipped,
			Reason:  "a copy of this book already exists in the fix folder",
		}, nil
	}

	kind, files, err := classify.Classify(inbox, exts)
	if err != nil {
		return RouteDecision{}, fmt.Errorf("pipeline: classify %s: %w", inbox, err)
	}

	switch kind {
	case classify.KindEmpty:
		return RouteDecision{Outcome: RouteFailed, Reason: "no audio files"}, nil

	case classify.KindMixed, classify.KindMultiNested:
		return RouteDecision{
			Outcome: RouteQuarantined,
			Reason:  "multiple folders with audio files — maybe multi-disc or multi-book",
		}, nil

	case classify.KindMultiDisc:
		return RouteDecision{
			Outcome: RouteQuarantined,
			Reason:  "multi-disc layout requires manual review",
		}, nil

	case classify.KindMultiBook:
		reason := "multiple distinct books found in one inbox folder"
		if subs, err := classify.BaseDirsWithAudio(inbox, exts, 1, 1); err == nil && len(subs) > 1 {
			names := make([]string, len(subs))
			for i, s := range subs {
				names[i] = filepath.Base(s)
			}
			reason = fmt.Sprintf("%s: %v", reason, names)
		}
		return RouteDecision{
			Outcome: RouteQuarantined,
			Reason:  reason,
		}, nil

	case classify.KindFlatNested:
		if err := flatten(inbox, exts); err != nil {
			return RouteDecision{}, fmt.Errorf("pipeline: flatten %s: %w", inbox, err)
		}
		files, err = reclassifyFlat(inbox, exts)
		if err != nil {
			return RouteDecision{}, err
		}

	case classify.KindFlat, classify.KindStandalone, classify.KindFile:
		// already in final shape

	default:
		return RouteDecision{Outcome: RouteQuarantined, Reason: fmt.Sprintf("unrecognised layout %q", kind)}, nil
	}

	if classify.RomanNumeralsAffectOrderInFiles(files) {
		return RouteDecision{
			Outcome: RouteQuarantined,
			Reason:  "roman numerals in filenames affect sort order — needs manual renaming",
		}, nil
	}

	classify.SortNatural(files)
	b.AudioFiles = files
	return RouteDecision{Outcome: RouteValidated}, nil
}

func reclassifyFlat(inbox string, exts book.ExtensionSet) ([]string, error) {
	kind, files, err := classify.Classify(inbox, exts)
	if err != nil {
		return nil, err
	}
	if kind != classify.KindFlat && kind != classify.KindStandalone {
		return nil, &bookerr.StructuralError{Path: inbox, Reason: fmt.Sprintf("flattening did not produce a flat layout, got %q", kind)}
	}
	return files, nil
}

// flatten moves every audio (and sidecar) file from a single audio-
// bearing subdirectory up into parent, implementing rule 1's
// "flat_nested → flatten" transition. It fails safe on name collisions:
// a colliding file is left in place with a warning rather than
// overwritten.
func flatten(parent string, exts book.ExtensionSet) error {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return err
	}

	var sub string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		full := filepath.Join(parent, e.Name())
		has, err := containsAudioDir(full, exts)
		if err != nil {
			return err
		}
		if has {
			sub = full
			break
		}
	}
	if sub == "" {
		return nil
	}

	subEntries, err := os.ReadDir(sub)
	if err != nil {
		return err
	}
	for _, e := range subEntries {
		if e.IsDir() {
			continue
		}
		src := filepath.Join(sub, e.Name())
		dst := filepath.Join(parent, e.Name())
		if _, statErr := os.Stat(dst); statErr == nil {
			util.WarnLog("flatten: %s already exists in %s, leaving %s in place", e.Name(), parent, src)
			continue
		}
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("flatten: move %s: %w", src, err)
		}
	}
	os.Remove(sub) // best-effort: non-empty if a collision left files behind
	return nil
}

func containsAudioDir(dir string, exts book.ExtensionSet) (bool, error) {
	kind, _, err := classify.Classify(dir, exts)
	if err != nil {
		return false, err
	}
	return kind == classify.KindFlat || kind == classify.KindStandalone || kind == classify.KindFile, nil
}
