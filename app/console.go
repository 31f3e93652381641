package app

import (
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
)

// console печатает начало и конец демонстрационных задач.
// Воркеры пишут одновременно, поэтому вывод сериализуется.
type console struct {
	mu    sync.Mutex
	out   io.Writer
	start *color.Color
	end   *color.Color
}

func newConsole(out io.Writer) *console {
	if out == nil {
		out = color.Output
	}
	return &console{
		out:   out,
		start: color.New(color.FgCyan),
		end:   color.New(color.FgGreen, color.Bold),
	}
}

func (c *console) started(producer string, seq int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.start.Fprintf(c.out, "Start new task %s/%d\n", producer, seq)
}

func (c *console) finished(producer string, seq int, took time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.end.Fprintf(c.out, "End task %s/%d (%s)\n", producer, seq, took.Round(time.Millisecond))
}
