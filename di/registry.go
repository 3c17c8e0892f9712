package di

import "sync"

// Registry maps tokens to the ordered sequence of injectables registered for
// them. Registrations are only ever appended.
type Registry struct {
	mu      sync.RWMutex
	entries map[Token][]Injectable
	order   []Token
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Token][]Injectable)}
}

// Register appends injectable to the sequence for token.
func (r *Registry) Register(token Token, injectable Injectable) {
	mustBeUsableToken(token)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.append(token, injectable)
}

// RegisterBatch registers every binding in slice order under one lock.
func (r *Registry) RegisterBatch(bindings []Binding) {
	for _, b := range bindings {
		mustBeUsableToken(b.Token)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range bindings {
		r.append(b.Token, b.Injectable)
	}
}

func (r *Registry) append(token Token, injectable Injectable) {
	if _, ok := r.entries[token]; !ok {
		r.order = append(r.order, token)
	}
	r.entries[token] = append(r.entries[token], injectable)
}

// Lookup returns a copy of the injectables registered for token, in
// registration order. The result is empty when the token is unknown.
func (r *Registry) Lookup(token Token) []Injectable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.entries[token]
	out := make([]Injectable, len(src))
	copy(out, src)
	return out
}

// Tokens returns every registered token in order of first registration.
func (r *Registry) Tokens() []Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Token, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the total number of registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, inj := range r.entries {
		n += len(inj)
	}
	return n
}
