package activities

import (
	"errors"
	"sort"
	"sync"

	"activity-signup/internal/models"
	"activity-signup/pkg/registry"
)

var (
	ErrActivityNotFound    = errors.New("ACTIVITY_NOT_FOUND")
	ErrParticipantNotFound = errors.New("PARTICIPANT_NOT_FOUND")
	ErrAlreadySignedUp     = errors.New("ALREADY_SIGNED_UP")
	ErrActivityFull        = errors.New("ACTIVITY_FULL")
)

// Policy holds the optional invariants. The zero value is fully permissive:
// duplicate emails are accepted and max_participants is never checked.
type Policy struct {
	EnforceCapacity  bool
	RejectDuplicates bool
}

// Registry is the in-memory mapping of activity name to activity. All
// methods are safe for concurrent use; readers get copies.
type Registry struct {
	mu         sync.RWMutex
	activities map[string]*models.Activity
	seed       map[string]models.Activity
	policy     Policy
}

type Option func(*Registry)

// WithPolicy sets the signup invariants enforced by the registry.
func WithPolicy(p Policy) Option {
	return func(r *Registry) {
		r.policy = p
	}
}

// New builds a registry seeded with a copy of seed.
func New(seed map[string]models.Activity, opts ...Option) *Registry {
	r := &Registry{seed: make(map[string]models.Activity, len(seed))}
	for name, a := range seed {
		r.seed[name] = a.Clone()
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Reset()
	return r
}

// FromCatalog builds a registry from a seed catalog.
func FromCatalog(c *registry.Catalog, opts ...Option) *Registry {
	seed := make(map[string]models.Activity, len(c.Activities))
	for _, a := range c.Activities {
		seed[a.Name] = models.Activity{
			Description:     a.Description,
			Schedule:        a.Schedule,
			MaxParticipants: a.MaxParticipants,
			Participants:    a.Participants,
		}
	}
	return New(seed, opts...)
}

// Reset restores the seeded state.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.activities = make(map[string]*models.Activity, len(r.seed))
	for name, a := range r.seed {
		cp := a.Clone()
		r.activities[name] = &cp
	}
}

// List returns a snapshot of every activity keyed by name.
func (r *Registry) List() map[string]models.Activity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]models.Activity, len(r.activities))
	for name, a := range r.activities {
		out[name] = a.Clone()
	}
	return out
}

// Names returns the activity names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.activities))
	for name := range r.activities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a snapshot of one activity.
func (r *Registry) Get(name string) (models.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.activities[name]
	if !ok {
		return models.Activity{}, ErrActivityNotFound
	}
	return a.Clone(), nil
}

// Signup appends email to the named activity and returns the updated
// snapshot.
func (r *Registry) Signup(name, email string) (models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.activities[name]
	if !ok {
		return models.Activity{}, ErrActivityNotFound
	}
	if r.policy.RejectDuplicates && a.HasParticipant(email) {
		return models.Activity{}, ErrAlreadySignedUp
	}
	if r.policy.EnforceCapacity && len(a.Participants) >= a.MaxParticipants {
		return models.Activity{}, ErrActivityFull
	}

	a.Participants = append(a.Participants, email)
	return a.Clone(), nil
}

// Unregister removes the first occurrence of email from the named activity.
func (r *Registry) Unregister(name, email string) (models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.activities[name]
	if !ok {
		return models.Activity{}, ErrActivityNotFound
	}

	for i, p := range a.Participants {
		if p == email {
			a.Participants = append(a.Participants[:i], a.Participants[i+1:]...)
			return a.Clone(), nil
		}
	}
	return models.Activity{}, ErrParticipantNotFound
}
