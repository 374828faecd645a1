// Package registry maps target-function keys to implementations.
//
// A level's completion threshold is looked up by key, never hard-coded, so
// saved games only carry the key and new growth curves can be registered
// without touching the level manager.
package registry

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// DefaultKey names the fallback target function.
const DefaultKey = "power"

// TargetFunc returns the tile value that completes a board of the given size.
type TargetFunc func(size int) int

// Registry is a concurrency-safe set of named target functions.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]TargetFunc
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{funcs: make(map[string]TargetFunc)}
}

// Default returns a registry holding power and fibonacci.
func Default() *Registry {
	r := New()
	r.Register("power", Power)
	r.Register("fibonacci", Fibonacci)
	return r
}

// Register adds a target function.
// Panics if the key is empty, fn is nil, or the key is already registered.
func (r *Registry) Register(key string, fn TargetFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key == "" || fn == nil {
		panic("registry: empty key or nil target function")
	}
	if _, exists := r.funcs[key]; exists {
		panic(fmt.Sprintf("registry: target %q already registered", key))
	}
	r.funcs[key] = fn
}

// Lookup returns the function registered under key.
func (r *Registry) Lookup(key string) (TargetFunc, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.funcs[key]
	return fn, ok
}

// Resolve returns the function for key, falling back to Power when the key
// is unknown. It never fails.
func (r *Registry) Resolve(key string) TargetFunc {
	if fn, ok := r.Lookup(key); ok {
		return fn
	}
	return Power
}

// Has checks if key is registered.
func (r *Registry) Has(key string) bool {
	_, ok := r.Lookup(key)
	return ok
}

// Keys returns all registered keys, sorted.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.funcs))
	for k := range r.funcs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Power returns 2^(size+3): 32 for a 2x2 board, 64 for 3x3.
// The result saturates at math.MaxInt.
func Power(size int) int {
	exp := size + 3
	switch {
	case exp < 0:
		return 0
	case exp >= 62:
		return math.MaxInt
	}
	return 1 << exp
}

// Fibonacci returns F(size+7), or 1 when that is 0. A 2x2 board needs 34.
// The result saturates at math.MaxInt.
func Fibonacci(size int) int {
	steps := max(0, size+7)
	a, b := 0, 1
	for range steps {
		if b > math.MaxInt-a {
			return math.MaxInt
		}
		a, b = b, a+b
	}
	if a == 0 {
		return 1
	}
	return a
}
