package app

import (
	"sort"
	"sync"
)

// JobRegistry is the set of in-flight job ids. Membership is the only
// cancellation signal: removing an id tells the running job to stop at its
// next poll. The lock is held only for single membership operations.
type JobRegistry struct {
	mu      sync.Mutex
	active  map[string]uint64
	nextGen uint64
}

// NewJobRegistry creates an empty registry
func NewJobRegistry() *JobRegistry {
	return &JobRegistry{active: make(map[string]uint64)}
}

// Lease is one admission of a job id. It stays active until the id is
// cancelled or the lease is released, and a stale lease never affects a
// later admission of the same id.
type Lease struct {
	registry *JobRegistry
	id       string
	gen      uint64
	once     sync.Once
}

// Acquire admits id, returning false if it is already active
func (r *JobRegistry) Acquire(id string) (*Lease, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[id]; ok {
		return nil, false
	}
	r.nextGen++
	r.active[id] = r.nextGen
	return &Lease{registry: r, id: id, gen: r.nextGen}, true
}

// TryStart admits id, returning false without changing state if it is already active
func (r *JobRegistry) TryStart(id string) bool {
	_, ok := r.Acquire(id)
	return ok
}

// IsActive reports whether id is active
func (r *JobRegistry) IsActive(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[id]
	return ok
}

// Cancel removes id and reports whether it was present
func (r *JobRegistry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[id]; !ok {
		return false
	}
	delete(r.active, id)
	return true
}

// Finish removes id unconditionally; calling it for an absent id is a no-op
func (r *JobRegistry) Finish(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}

// List returns the active ids in sorted order
func (r *JobRegistry) List() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.active))
	for id := range r.active {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	sort.Strings(ids)
	return ids
}

// Len returns the number of active ids
func (r *JobRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// ID returns the job id the lease was acquired for
func (l *Lease) ID() string {
	return l.id
}

// Active reports whether this admission is still registered
func (l *Lease) Active() bool {
	l.registry.mu.Lock()
	defer l.registry.mu.Unlock()
	gen, ok := l.registry.active[l.id]
	return ok && gen == l.gen
}

// Release removes this admission from the registry. Only the first call has
// an effect, and an id re-admitted after cancellation is left untouched.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.registry.mu.Lock()
		defer l.registry.mu.Unlock()
		if gen, ok := l.registry.active[l.id]; ok && gen == l.gen {
			delete(l.registry.active, l.id)
		}
	})
}

// Registries holds the independent download and extraction registries
type Registries struct {
	Downloads   *JobRegistry
	Extractions *JobRegistry
}

// NewRegistries creates both registries
func NewRegistries() *Registries {
	return &Registries{
		Downloads:   NewJobRegistry(),
		Extractions: NewJobRegistry(),
	}
}
