package domain

import (
	"errors"
	"sync"
)

var ErrPriceNotFound = errors.New("price not found")

// PriceRegistry keeps the last observed price per qualified symbol.
// Entries are overwritten by later sessions and never deleted.
type PriceRegistry struct {
	mu      sync.RWMutex
	storage map[string]float64
}

func NewPriceRegistry() *PriceRegistry {
	return &PriceRegistry{
		storage: make(map[string]float64),
	}
}

func (r *PriceRegistry) Store(symbol string, price float64) {
	r.mu.Lock()
	r.storage[symbol] = price
	r.mu.Unlock()
}

func (r *PriceRegistry) Get(symbol string) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	price, ok := r.storage[symbol]
	if !ok {
		return 0, ErrPriceNotFound
	}
	return price, nil
}

func (r *PriceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.storage)
}
