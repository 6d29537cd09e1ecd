// Package testing provides test utilities for TUI models.
package testing

import (
	"regexp"
	"strings"
	"time"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// StripANSI removes all ANSI escape codes from a string.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// ContainsInOrder checks if the output contains all specified strings in order.
func ContainsInOrder(output string, expected ...string) bool {
	lastIndex := 0
	for _, exp := range expected {
		index := strings.Index(output[lastIndex:], exp)
		if index == -1 {
			return false
		}
		lastIndex += index + len(exp)
	}
	return true
}

// Clock provides deterministic time for tick-driven models.
type Clock struct {
	current time.Time
}

// NewClock creates a clock at start.
func NewClock(start time.Time) *Clock {
	return &Clock{current: start}
}

// Now returns the current time.
func (c *Clock) Now() time.Time {
	return c.current
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.current = c.current.Add(d)
	return c.current
}
