package notice

import (
	"sync"
	"time"
)

const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Alert is a transient operator-facing message.
type Alert struct {
	Message string `json:"message"`
	Level   string `json:"level"`
}

// Center holds at most one alert at a time. Posting replaces the current
// alert and restarts the dismiss timer.
type Center struct {
	mu      sync.Mutex
	ttl     time.Duration
	current *Alert
	timer   *time.Timer
}

func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Center{ttl: ttl}
}

func (c *Center) Post(message, level string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = &Alert{Message: message, Level: level}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.ttl, c.Clear)
}

func (c *Center) Current() *Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	copy := *c.current
	return &copy
}

func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
