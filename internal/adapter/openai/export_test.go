package openai

import "time"

// SetNameSource replaces the generator of synthesized file names.
func (c *Client) SetNameSource(newName func() string) { c.newName = newName }

// SetClock replaces the time source used for retention.
func (c *Client) SetClock(now func() time.Time) { c.now = now }
