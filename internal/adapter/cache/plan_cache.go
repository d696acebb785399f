package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"clusterform/internal/domain"
)

// CompileFunc builds a plan from a feature space.
type CompileFunc func([]domain.FeatureDescriptor) (*domain.EncodingPlan, error)

// PlanCache keeps compiled plans keyed by feature-space fingerprint.
// It is owned by whoever loads models; Invalidate drops every entry when
// a new definition replaces the old one.
type PlanCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	compile CompileFunc
	gen     uint64
	hits    uint64
	misses  uint64
}

type cacheEntry struct {
	plan *domain.EncodingPlan
	gen  uint64
}

func NewPlanCache(maxSize int, compile CompileFunc) *PlanCache {
	if maxSize <= 0 {
		maxSize = 8
	}
	return &PlanCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		compile: compile,
	}
}

// Fingerprint hashes the encoding-relevant part of a feature space.
// Labels and defaults do not affect it.
func Fingerprint(features []domain.FeatureDescriptor) string {
	type relevant struct {
		Name   string   `json:"n"`
		Kind   string   `json:"k"`
		Mean   *float64 `json:"m,omitempty"`
		Std    *float64 `json:"s,omitempty"`
		Order  []string `json:"o,omitempty"`
		Values []string `json:"v,omitempty"`
	}
	rel := make([]relevant, len(features))
	for i, f := range features {
		rel[i] = relevant{
			Name:   f.Name,
			Kind:   f.Kind,
			Mean:   f.Mean,
			Std:    f.Std,
			Order:  f.Order,
			Values: f.Values,
		}
	}
	data, _ := json.Marshal(rel)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

// Get returns the plan for features, compiling it on a miss.
// Compile errors are not cached.
func (c *PlanCache) Get(features []domain.FeatureDescriptor) (*domain.EncodingPlan, error) {
	key := Fingerprint(features)

	c.mu.RLock()
	entry, exists := c.entries[key]
	currentGen := c.gen
	c.mu.RUnlock()

	if exists && entry.gen == currentGen {
		c.mu.Lock()
		c.hits++
		// Invalidate may have run since the read lock was released.
		if _, ok := c.entries[key]; ok {
			c.moveToEnd(key)
		}
		c.mu.Unlock()
		return entry.plan, nil
	}

	plan, err := c.compile(features)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses++

	if _, exists := c.entries[key]; exists {
		c.entries[key] = &cacheEntry{plan: plan, gen: c.gen}
		c.moveToEnd(key)
		return plan, nil
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = &cacheEntry{plan: plan, gen: c.gen}
	c.order = append(c.order, key)

	return plan, nil
}

// Invalidate drops all compiled plans.
func (c *PlanCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.gen++
}

func (c *PlanCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counters.
func (c *PlanCache) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *PlanCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *PlanCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *PlanCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
