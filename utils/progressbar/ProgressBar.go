// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressBar implements progress bar functionality that must be
// manually managed. That is, Display must be called whenever an
// updated progress bar should be printed.
//
// ProgressBar is not safe for concurrent use.
type ProgressBar struct {
	out             io.Writer
	width           float64
	maxProgress     float64 // 0 if the total is unknown
	currentProgress float64
	status          string
	bar             strings.Builder
	startTime       time.Time
}

// New returns a new ProgressBar that is width characters wide and
// reaches 100% after max calls to Increment. If max is not positive
// only the count is shown.
func New(out io.Writer, width, max int) *ProgressBar {
	return &ProgressBar{
		out:         out,
		width:       float64(width),
		maxProgress: float64(max),
		startTime:   time.Now(),
	}
}

// Increment increments the internal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ProgressBar) Increment() {
	if p.maxProgress <= 0 || p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
}

// SetStatus sets a short message shown after the bar
func (p *ProgressBar) SetStatus(format string, args ...interface{}) {
	p.status = fmt.Sprintf(format, args...)
}

// String returns the current progress bar
func (p *ProgressBar) String() string {
	p.bar.Reset()
	elapsed := time.Since(p.startTime).Truncate(time.Second)

	if p.maxProgress <= 0 {
		fmt.Fprintf(&p.bar, "[%.0f | elapsed: %v]", p.currentProgress,
			elapsed)
	} else {
		p.bar.WriteString("|")
		currentProg := p.currentProgress / p.maxProgress * p.width
		for i := 0.0; i < p.width; i++ {
			if i < currentProg {
				p.bar.WriteString("█")
			} else {
				p.bar.WriteString(" ")
			}
		}
		fmt.Fprintf(&p.bar, "| [%.2f%% | elapsed: %v]",
			p.currentProgress/p.maxProgress*100, elapsed)
	}

	if p.status != "" {
		p.bar.WriteString(" ")
		p.bar.WriteString(p.status)
	}
	return p.bar.String()
}

// Display prints the progress bar over the previous one
func (p *ProgressBar) Display() {
	fmt.Fprintf(p.out, "\n\033[1A\033[K%v", p.String())
}

// Finish prints the final progress bar followed by a newline
func (p *ProgressBar) Finish() {
	p.Display()
	fmt.Fprintln(p.out)
}
