package discipline

// periodCounter counts ticks since the last synchronized edge.
type periodCounter struct {
	count    int64
	maxCount int64
}

// advance counts one tick. Past maxCount the counter freezes and every
// further tick reports a timeout.
func (c *periodCounter) advance() bool {
	if c.count <= c.maxCount {
		c.count++
		return false
	}
	return true
}

// capture returns the current count and restarts counting from zero.
func (c *periodCounter) capture() int64 {
	raw := c.count
	c.count = 0
	return raw
}
