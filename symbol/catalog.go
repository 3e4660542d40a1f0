package symbol

import (
	"fmt"
	"sync"
)

// Catalog is the append-only strip shared by every reel
// Indices handed out are stable for the lifetime of the catalog
type Catalog struct {
	mu      sync.RWMutex
	symbols []Symbol
	byID    map[string]int
}

// NewCatalog builds a catalog from an initial strip, rejecting invalid or duplicate entries
func NewCatalog(initial []Symbol) (*Catalog, error) {
	c := &Catalog{
		symbols: make([]Symbol, 0, len(initial)+4),
		byID:    make(map[string]int, len(initial)+4),
	}
	for _, s := range initial {
		if _, err := c.Append(s); err != nil {
			return nil, fmt.Errorf("initial symbol %q: %w", s.ID, err)
		}
	}
	if c.Len() == 0 {
		return nil, fmt.Errorf("%w: catalog needs at least one symbol", ErrInvalid)
	}
	return c, nil
}

// Len returns the current symbol count
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.symbols)
}

// At returns the symbol at index i
func (c *Catalog) At(i int) (Symbol, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.symbols) {
		return Symbol{}, false
	}
	return c.symbols[i], true
}

// IndexOf returns the index of id, or -1
func (c *Catalog) IndexOf(id string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i, ok := c.byID[id]; ok {
		return i
	}
	return -1
}

// Append normalizes, validates and adds s at the end of the strip
func (c *Catalog) Append(s Symbol) (int, error) {
	s = Normalize(s)
	if err := Validate(s); err != nil {
		return -1, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byID[s.ID]; exists {
		return -1, fmt.Errorf("%w: %s", ErrDuplicateID, s.ID)
	}
	c.symbols = append(c.symbols, s)
	idx := len(c.symbols) - 1
	c.byID[s.ID] = idx
	return idx, nil
}

// IDs maps strip indices to symbol IDs, skipping out-of-range indices
func (c *Catalog) IDs(indices []int) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(c.symbols) {
			ids = append(ids, c.symbols[i].ID)
		}
	}
	return ids
}

// Snapshot returns a copy of the strip for rendering
func (c *Catalog) Snapshot() []Symbol {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Symbol, len(c.symbols))
	copy(out, c.symbols)
	return out
}
