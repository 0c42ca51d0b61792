// Package sink provides write capabilities for toolkit outputs.
//
// Operations that produce named byte outputs (split parts, extracted
// entries) never choose a destination themselves. They ask a Sink for a
// Committer per output, write the bytes, and then either Commit or Discard.
package sink

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/meigma/binkit/internal/bintype"
)

// Sink hands out writers for named outputs.
type Sink interface {
	// Writer returns a writer for the named output.
	// The returned Committer must have Commit() called after a successful
	// write, or Discard() called on any error.
	Writer(name string) (Committer, error)
}

// Committer is a writer that can be committed or discarded.
//
// Implementations should buffer or stage writes until Commit is called.
// For example, a file-based implementation might write to a temp file
// and rename it on Commit, or delete it on Discard.
type Committer interface {
	io.Writer

	// Commit finalizes the write, making content available.
	Commit() error

	// Discard aborts the write and cleans up any temporary resources.
	Discard() error
}

// MemorySink keeps committed outputs in memory.
type MemorySink struct {
	mu    sync.Mutex
	names []string
	data  map[string][]byte
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{data: make(map[string][]byte)}
}

// Writer returns a Committer that stores its bytes under name on Commit.
func (s *MemorySink) Writer(name string) (Committer, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty output name", bintype.ErrInvalidInput)
	}
	return &memoryCommitter{sink: s, name: name}, nil
}

// Names returns committed output names in commit order.
func (s *MemorySink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.names)
}

// Get returns the committed bytes for name.
func (s *MemorySink) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[name]
	return data, ok
}

// Len returns the number of committed outputs.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}

type memoryCommitter struct {
	sink *MemorySink
	name string
	buf  bytes.Buffer
	done bool
}

func (c *memoryCommitter) Write(p []byte) (int, error) {
	if c.done {
		return 0, fmt.Errorf("write %s: committer closed", c.name)
	}
	return c.buf.Write(p)
}

func (c *memoryCommitter) Commit() error {
	if c.done {
		return fmt.Errorf("commit %s: committer closed", c.name)
	}
	c.done = true
	c.sink.mu.Lock()
	defer c.sink.mu.Unlock()
	if _, exists := c.sink.data[c.name]; !exists {
		c.sink.names = append(c.sink.names, c.name)
	}
	c.sink.data[c.name] = c.buf.Bytes()
	return nil
}

func (c *memoryCommitter) Discard() error {
	c.done = true
	c.buf.Reset()
	return nil
}
