package aggregate

import (
	"sync"
)

// Collector gathers rows from concurrent runs in arrival order.
type Collector struct {
	mu   sync.Mutex
	rows []string
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends one row. It is safe for concurrent use.
func (c *Collector) Add(fragment any) error {
	frag, err := encodeObject(fragment)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.rows = append(c.rows, frag)
	c.mu.Unlock()
	return nil
}

// Len returns the number of rows.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}

// JSON serializes the rows with the same shape a Slot would have: "" for
// none, a bare object for one, an array otherwise.
func (c *Collector) JSON() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serialize()
}

// Reset drops all rows and returns the serialized content they had.
func (c *Collector) Reset() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.serialize()
	c.rows = nil
	return out
}

// serialize requires c.mu.
func (c *Collector) serialize() string {
	var content string
	for _, r := range c.rows {
		content = Append(content, r)
	}
	return content
}
