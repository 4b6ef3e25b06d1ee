package session

import (
	"sync"

	"github.com/melonguard/melonguard-go/internal/diagnosis"
)

// Cell is a monitored value holder for the latest live-frame result. The
// stream callback is the single producer, page renders are the single
// consumer; each frame overwrites the previous value so staleness is bounded
// by one frame interval.
type Cell struct {
	mu    sync.RWMutex
	value diagnosis.Result
	set   bool
}

// NewCell returns an empty cell.
func NewCell() *Cell {
	return &Cell{}
}

// Set stores the latest result, replacing any previous one.
func (c *Cell) Set(result diagnosis.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = result
	c.set = true
}

// Get returns the latest result and whether one is present.
func (c *Cell) Get() (diagnosis.Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.set
}

// Clear empties the cell.
func (c *Cell) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = diagnosis.Result{}
	c.set = false
}
