// Package identity is the boundary to the family-member directory.
//
// The annotation workflow binds detected faces to identities; it never owns
// identity creation. Callers resolve or create an identity here first and then
// hand its id and display name to the session.
package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ronyyyyy619/Yaadein-Final-sub001/core"
)

// Identity is one known person.
type Identity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Registry resolves and creates identities.
// Implementations: MemRegistry, Cached (read-through cache over any Registry).
type Registry interface {
	// Resolve returns the identity with the given id, or a NotFoundError.
	Resolve(ctx context.Context, id string) (*Identity, error)

	// Create registers a new identity from a display name.
	Create(ctx context.Context, name string) (*Identity, error)

	// List returns every identity in creation order.
	List(ctx context.Context) ([]*Identity, error)
}

// MemRegistry is an in-memory Registry.
type MemRegistry struct {
	mu    sync.RWMutex
	byID  map[string]*Identity
	order []string
}

// NewMemRegistry creates a registry seeded with identities.
// Seeded identities keep their ids; empty ids are generated.
func NewMemRegistry(seed ...Identity) *MemRegistry {
	r := &MemRegistry{byID: make(map[string]*Identity)}
	for _, id := range seed {
		id := id
		if id.ID == "" {
			id.ID = uuid.New().String()
		}
		if id.CreatedAt.IsZero() {
			id.CreatedAt = time.Now()
		}
		r.byID[id.ID] = &id
		r.order = append(r.order, id.ID)
	}
	return r
}

// Resolve implements Registry.
func (r *MemRegistry) Resolve(_ context.Context, id string) (*Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ident, ok := r.byID[id]
	if !ok {
		return nil, &core.NotFoundError{Kind: "identity", ID: id}
	}
	cp := *ident
	return &cp, nil
}

// Create implements Registry.
func (r *MemRegistry) Create(_ context.Context, name string) (*Identity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &core.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	ident := &Identity{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[ident.ID] = ident
	r.order = append(r.order, ident.ID)

	cp := *ident
	return &cp, nil
}

// List implements Registry.
func (r *MemRegistry) List(_ context.Context) ([]*Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Identity, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.byID[id]
		out = append(out, &cp)
	}
	return out, nil
}
