package logging

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultConsoleSize is the number of entries a Console keeps before dropping the oldest.
const DefaultConsoleSize = 256

// Entry is a single record written to a Console.
type Entry struct {
	Time       time.Time      `json:"time"`
	Level      string         `json:"level"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes"`
}

// Console is the diagnostic channel of a page: a bounded, thread-safe buffer of log entries.
// Developers read it through the server's /console endpoint; end users never see it.
type Console struct {
	mu      sync.RWMutex
	size    int
	entries []Entry
}

// NewConsole creates a Console holding at most size entries. A size below one uses
// DefaultConsoleSize.
func NewConsole(size int) *Console {
	if size < 1 {
		size = DefaultConsoleSize
	}
	return &Console{size: size}
}

// Add appends an entry, evicting the oldest one when full.
func (c *Console) Add(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) == c.size {
		copy(c.entries, c.entries[1:])
		c.entries = c.entries[:len(c.entries)-1]
	}
	c.entries = append(c.entries, e)
}

// Entries returns a copy of all entries, oldest first.
func (c *Console) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Errors returns the entries logged at error level or above.
func (c *Console) Errors() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Entry
	for _, e := range c.entries {
		if e.Level == slog.LevelError.String() {
			out = append(out, e)
		}
	}
	return out
}

// Clear drops all entries.
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}
