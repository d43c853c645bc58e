package runtime

import (
	"bufio"
	"io"
	"sync"

	"github.com/kolkov/neoc/internal/types"
	"github.com/kolkov/neoc/internal/vm"
)

// Console collects what a script prints. Notify items become one formatted
// line each and Log messages are written as they are; both keep the order
// the script produced them in. A Console may be shared by several VMs.
type Console struct {
	mu     sync.Mutex
	writer *bufio.Writer // nil when only recording
	lines  []string
	err    error
}

// NewConsole creates a console that also writes every line to w. A nil w
// only records.
func NewConsole(w io.Writer) *Console {
	c := &Console{}
	if w != nil {
		c.writer = bufio.NewWriter(w)
	}
	return c
}

// Attach replaces the Notify and Log services of m with ones that print to
// the console.
func (c *Console) Attach(m *vm.VM) {
	m.Register(vm.SyscallNotify, func(m *vm.VM) error {
		item, err := m.Pop()
		if err != nil {
			return err
		}
		c.Println(FormatArgs(item))
		return nil
	})
	m.Register(vm.SyscallLog, func(m *vm.VM) error {
		item, err := m.Pop()
		if err != nil {
			return err
		}
		msg, err := item.Bytes()
		if err != nil {
			return err
		}
		c.Println(string(msg))
		return nil
	})
}

// Println records one line. The first write error is kept and returned by
// Flush; later lines are still recorded.
func (c *Console) Println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = append(c.lines, line)
	if c.writer == nil || c.err != nil {
		return
	}
	if _, err := c.writer.WriteString(line); err != nil {
		c.err = err
		return
	}
	if err := c.writer.WriteByte('\n'); err != nil {
		c.err = err
	}
}

// PrintValues records the formatted form of notification items, for VMs
// that ran without the console attached.
func (c *Console) PrintValues(items []types.Value) {
	for _, item := range items {
		c.Println(FormatArgs(item))
	}
}

// Lines returns a copy of everything printed so far.
func (c *Console) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

// Flush writes buffered output and reports the first write error.
func (c *Console) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writer == nil {
		return c.err
	}
	if err := c.writer.Flush(); err != nil && c.err == nil {
		c.err = err
	}
	return c.err
}
