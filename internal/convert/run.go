package convert

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/brandonscript/auto-m4b/internal/book"
	"github.com/brandonscript/auto-m4b/internal/bookerr"
	"github.com/brandonscript/auto-m4b/internal/config"
)

// Result is what Run returns: the captured process output plus the
// interpreter's verdict, per the contract "(ok, stdout, stderr,
// maybe_error_summary)".
type Result struct {
	OK           bool
	Stdout       string
	Stderr       string
	ErrorSummary string
}

// Run executes the converter tool against book's staged files and
// interprets the result. It never returns a non-nil error for an
// ordinary conversion failure — that's communicated via Result; the
// returned error is reserved for failures to even invoke the tool (e.g.
// binary not found, context cancelled).
func Run(ctx context.Context, b *book.Audiobook, cfg *config.Config) (Result, error) {
	chaptersFile, err := FindChaptersFile(b)
	if err != nil {
		return Result{}, err
	}
	args := BuildArgs(b, cfg, chaptersFile)

	if cfg.Debug {
		_ = b.WriteLog("running: " + argvString(cfg.M4BToolBin, args))
	}

	cmd := exec.CommandContext(ctx, cfg.M4BToolBin, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if runErr != nil {
		if _, ok := runErr.(*exec.Error); ok {
			return Result{}, &bookerr.FatalProcessError{Reason: "converter binary not runnable", Err: runErr}
		}
	}

	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if res.Stderr != "" && !stderrIsIgnorable(res.Stderr) {
		res.OK = false
		res.ErrorSummary = firstLine(res.Stderr)
		return res, nil
	}

	if summary, ok := interpretOutput(res.Stdout); !ok {
		res.OK = false
		res.ErrorSummary = summary
		return res, nil
	}

	if _, statErr := os.Stat(b.BuildFile()); statErr != nil {
		res.OK = false
		res.ErrorSummary = "No output file found, conversion or copying probably failed, but no error was reported"
		return res, nil
	}

	res.OK = true
	return res, nil
}

// stderrIsIgnorable reports whether the entire trimmed stderr text
// matches one of the ignorable-warning patterns, per the contract: a
// partial match inside a longer, otherwise-unrecognised stderr is not
// enough to suppress it.
func stderrIsIgnorable(stderr string) bool {
	trimmed := strings.TrimSpace(stderr)
	for _, ignorable := range ignorablePatterns {
		if loc := ignorable.FindStringIndex(trimmed); loc != nil && loc[0] == 0 && loc[1] == len(trimmed) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
