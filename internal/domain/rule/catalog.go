package rule

import (
	"fmt"
	"sort"
	"strings"
)

// Catalog holds the registered rules keyed by code
type Catalog struct {
	rules map[string]Rule
}

// NewCatalog creates a catalog holding rules.
func NewCatalog(rules ...Rule) (*Catalog, error) {
	c := &Catalog{rules: make(map[string]Rule)}
	for _, r := range rules {
		if err := c.Register(r); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds a rule. Codes must be non-empty and unique.
func (c *Catalog) Register(r Rule) error {
	code := r.Metadata().Code
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("rule has empty code")
	}
	if strings.Contains(code, "/") {
		return fmt.Errorf("rule code %q must not contain '/'", code)
	}
	if _, exists := c.rules[code]; exists {
		return fmt.Errorf("rule %s already registered", code)
	}
	c.rules[code] = r
	return nil
}

// Get returns the rule registered under code.
func (c *Catalog) Get(code string) (Rule, bool) {
	r, ok := c.rules[code]
	return r, ok
}

// All returns every rule ordered by code.
func (c *Catalog) All() []Rule {
	out := make([]Rule, 0, len(c.rules))
	for _, r := range c.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Metadata().Code < out[j].Metadata().Code
	})
	return out
}

// Len returns the number of registered rules
func (c *Catalog) Len() int {
	return len(c.rules)
}

// Select returns a catalog narrowed to codes. No codes selects everything.
func (c *Catalog) Select(codes ...string) (*Catalog, error) {
	var wanted []string
	for _, code := range codes {
		if code = strings.TrimSpace(code); code != "" {
			wanted = append(wanted, code)
		}
	}
	if len(wanted) == 0 {
		return c, nil
	}

	out := &Catalog{rules: make(map[string]Rule, len(wanted))}
	for _, code := range wanted {
		r, ok := c.rules[code]
		if !ok {
			return nil, fmt.Errorf("unknown rule code: %s", code)
		}
		out.rules[code] = r
	}
	return out, nil
}

// DefaultCatalog returns the built-in machine image rules.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(PublicImageRule{}, EncryptedImageRule{})
	if err != nil {
		panic(err)
	}
	return c
}
