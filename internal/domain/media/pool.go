package media

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/janhq/cms-media/internal/domain/credential"
)

// StoreFactory builds a Store bound to one principal.
type StoreFactory func(principal credential.Principal) (*Store, error)

// StorePool keeps one Store, and so one credential cache, per principal.
// Least recently used stores are dropped once the pool is full.
type StorePool struct {
	mu      sync.Mutex
	stores  *lru.Cache[string, *Store]
	factory StoreFactory
}

func NewStorePool(size int, factory StoreFactory) (*StorePool, error) {
	if size <= 0 {
		size = 256
	}
	stores, err := lru.New[string, *Store](size)
	if err != nil {
		return nil, fmt.Errorf("create store pool: %w", err)
	}
	return &StorePool{stores: stores, factory: factory}, nil
}

// Get returns the principal's store, building it on first use.
func (p *StorePool) Get(principal credential.Principal) (*Store, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if store, ok := p.stores.Get(principal.UserID); ok {
		return store, nil
	}

	store, err := p.factory(principal)
	if err != nil {
		return nil, err
	}
	p.stores.Add(principal.UserID, store)
	return store, nil
}

func (p *StorePool) Len() int {
	return p.stores.Len()
}
