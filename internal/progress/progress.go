// Package progress renders a terminal progress bar for long comparison runs.
//
// The bar counts curve-pair comparisons. Workers call Add concurrently; a single
// render goroutine redraws the line on an interval, so the hot path is one atomic
// add.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/arloliu/sircmp/internal/options"
)

const (
	defaultWidth    = 40
	defaultInterval = 250 * time.Millisecond
)

// Enabled reports whether f is an interactive terminal worth drawing a bar on.
func Enabled(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Option configures a Bar.
type Option = options.Option[*Bar]

// WithWidth sets the width of the bar in cells.
func WithWidth(width int) Option {
	return options.New(func(b *Bar) error {
		if width < 1 {
			return fmt.Errorf("progress: width must be positive, got %d", width)
		}
		b.model.Width = width

		return nil
	})
}

// WithInterval sets the redraw interval.
func WithInterval(d time.Duration) Option {
	return options.New(func(b *Bar) error {
		if d <= 0 {
			return fmt.Errorf("progress: interval must be positive, got %s", d)
		}
		b.interval = d

		return nil
	})
}

// Bar is a progress bar over a known number of comparisons.
type Bar struct {
	out      io.Writer
	model    progress.Model
	interval time.Duration
	now      func() time.Time

	total atomic.Uint64
	done  atomic.Uint64
	start time.Time

	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates a bar writing to out.
//
// Parameters:
//   - out: Destination of the bar, usually os.Stderr
//   - opts: Optional width and redraw interval
//
// Returns:
//   - *Bar: Stopped bar; call Start to begin drawing
//   - error: Invalid option value
func New(out io.Writer, opts ...Option) (*Bar, error) {
	b := &Bar{
		out:      out,
		model:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(defaultWidth)),
		interval: defaultInterval,
		now:      time.Now,
	}
	if err := options.Apply(b, opts...); err != nil {
		return nil, err
	}

	return b, nil
}

// SetTotal sets the number of comparisons that make up 100%.
func (b *Bar) SetTotal(total uint64) {
	b.total.Store(total)
}

// Add advances the bar by n comparisons.
func (b *Bar) Add(n uint64) {
	b.done.Add(n)
}

// Done returns the number of comparisons counted so far.
func (b *Bar) Done() uint64 {
	return b.done.Load()
}

// Start begins redrawing the bar in the background.
func (b *Bar) Start() {
	b.start = b.now()
	b.stop = make(chan struct{})
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()

		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				b.draw()
			case <-b.stop:
				return
			}
		}
	}()
}

// Stop draws the final state and ends the line.
func (b *Bar) Stop() {
	if b.stop == nil {
		return
	}
	close(b.stop)
	b.wg.Wait()
	b.stop = nil

	b.draw()
	_, _ = io.WriteString(b.out, "\n")
}

func (b *Bar) draw() {
	_, _ = io.WriteString(b.out, "\r"+b.Render())
}

// Render returns the current bar line without carriage control.
func (b *Bar) Render() string {
	done, total := b.done.Load(), b.total.Load()

	ratio := 1.0
	if total > 0 {
		ratio = min(float64(done)/float64(total), 1)
	}

	line := fmt.Sprintf("%s %s/%s", b.model.ViewAs(ratio), humanize.Comma(int64(done)), humanize.Comma(int64(total)))
	if !b.start.IsZero() {
		elapsed := b.now().Sub(b.start)
		line += " " + elapsed.Round(time.Second).String()
		if done > 0 && done < total {
			remaining := time.Duration(float64(elapsed) * float64(total-done) / float64(done))
			line += " eta " + remaining.Round(time.Second).String()
		}
	}

	return line
}
