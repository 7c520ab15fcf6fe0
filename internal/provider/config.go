package provider

import (
	"fmt"
	"strings"
	"time"
)

// Config is the declarative description of one provider instance. IDs
// are normalized so that lookups are insensitive to spelling variants.
type Config struct {
	ID         string
	Name       string
	Locator    string
	BaseURL    string
	APIKey     string
	RateLimit  int
	Timeout    time.Duration
	Retries    int
	Enabled    bool
	Priority   int
	Categories []Category
	Regions    []Region
	CacheTTL   time.Duration
	Params     map[string]any
}

// NormalizeID lowercases an id and maps spaces and hyphens to
// underscores so "Yahoo-Finance" and "yahoo finance" address the same
// provider.
func NormalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	id = strings.ReplaceAll(id, " ", "_")
	return strings.ReplaceAll(id, "-", "_")
}

// Normalize fills defaults and canonicalizes the id. It is idempotent.
func (c *Config) Normalize() {
	c.ID = NormalizeID(c.ID)
	if c.Name == "" {
		c.Name = c.ID
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 60
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if len(c.Regions) == 0 {
		c.Regions = []Region{RegionGlobal}
	}
}

// Validate checks the invariants a config must satisfy before the
// manager will accept it.
func (c *Config) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("provider id is required")
	}
	if c.Locator == "" {
		return fmt.Errorf("provider %s: locator is required", c.ID)
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("provider %s: at least one category is required", c.ID)
	}
	if c.Priority < 0 {
		return fmt.Errorf("provider %s: priority must be non-negative", c.ID)
	}
	return nil
}

// Serves reports whether the provider is configured for the category.
func (c *Config) Serves(cat Category) bool {
	for _, have := range c.Categories {
		if have == cat {
			return true
		}
	}
	return false
}

// Core reports whether this provider is treated as core infrastructure.
// Core providers get full-detail startup logging and their init
// failures are called out loudly.
func (c *Config) Core() bool {
	return c.Priority <= 2
}
