package judge

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/probsetter/pkgval/internal/verdict"
)

// Reporter prints one line per solution outcome and a final summary.
// Internal traces are the logger's job; the reporter only shows what a
// setter acts on.
type Reporter struct {
	out     io.Writer
	started time.Time
	pass    *color.Color
	fail    *color.Color
	dim     *color.Color
}

func NewReporter() *Reporter {
	return &Reporter{
		out:     os.Stdout,
		started: time.Now(),
		pass:    color.New(color.FgGreen, color.Bold),
		fail:    color.New(color.FgRed, color.Bold),
		dim:     color.New(color.Faint),
	}
}

func (r *Reporter) Outcome(out verdict.Outcome) {
	if out.Pass {
		r.pass.Fprint(r.out, "PASS")
		fmt.Fprintf(r.out, " %s [%s]", out.Solution, out.Tag)
		r.dim.Fprintf(r.out, " observed: %s\n", out.Summary)
		return
	}
	r.fail.Fprint(r.out, "FAIL")
	fmt.Fprintf(r.out, " %s [%s]: %s\n", out.Solution, out.Tag, out.Reason)
}

func (r *Reporter) TestsetRun(solName, tsName, group string, sum verdict.Summary, failedAt int) {
	target := tsName
	if group != "" {
		target = tsName + "/" + group
	}
	if failedAt == -1 {
		r.pass.Fprint(r.out, "OK")
		fmt.Fprintf(r.out, " %s on %s\n", solName, target)
		return
	}
	r.fail.Fprint(r.out, "FAIL")
	fmt.Fprintf(r.out, " %s on %s: test %d (%s)\n", solName, target, failedAt, sum)
}

func (r *Reporter) Summary(total, failed int) {
	dur := time.Since(r.started).Round(time.Millisecond)
	if failed == 0 {
		r.pass.Fprintf(r.out, "all %d solutions verified", total)
	} else {
		r.fail.Fprintf(r.out, "%d of %d solutions failed", failed, total)
	}
	r.dim.Fprintf(r.out, " in %s\n", dur)
}
