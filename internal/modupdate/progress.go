// SPDX-License-Identifier: MPL-2.0

package modupdate

import (
	"fmt"
	"io"

	units "github.com/docker/go-units"
)

// unknownSizeStep is how often progress is reported when the server sends no
// Content-Length.
const unknownSizeStep = 1 << 20

// Progress is an io.Writer that prints download progress to out, rewriting a
// single console line. It reports only when the percentage changes.
type Progress struct {
	out      io.Writer
	label    string
	total    int64
	written  int64
	lastPct  int
	lastStep int64
}

// NewProgress returns a Progress printing to out. A nil out disables output.
func NewProgress(out io.Writer, label string) *Progress {
	if out == nil {
		out = io.Discard
	}
	return &Progress{out: out, label: label, lastPct: -1}
}

// Start resets the counter. total <= 0 means the size is unknown.
func (p *Progress) Start(total int64) {
	p.total = total
	p.written = 0
	p.lastPct = -1
	p.lastStep = 0
	p.report()
}

// Write counts len(b) bytes. It never fails.
func (p *Progress) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	p.report()
	return len(b), nil
}

// Finish ends the progress line.
func (p *Progress) Finish() {
	fmt.Fprintln(p.out)
}

// Written returns the number of bytes counted since Start.
func (p *Progress) Written() int64 { return p.written }

// Percent returns the completed percentage, or -1 when the size is unknown.
func (p *Progress) Percent() int {
	if p.total <= 0 {
		return -1
	}
	pct := int(p.written * 100 / p.total)
	return min(pct, 100)
}

func (p *Progress) report() {
	if p.total <= 0 {
		step := p.written / unknownSizeStep
		if p.written != 0 && step == p.lastStep {
			return
		}
		p.lastStep = step
		fmt.Fprintf(p.out, "\r%s... %s", p.label, units.HumanSize(float64(p.written)))
		return
	}

	pct := p.Percent()
	if pct == p.lastPct {
		return
	}
	p.lastPct = pct
	fmt.Fprintf(p.out, "\r%s... %3d%% (%s / %s)", p.label, pct,
		units.HumanSize(float64(p.written)), units.HumanSize(float64(p.total)))
}
