package game

import "sort"

// EntityID identifies an actor in the world registry. Zero means "none".
type EntityID int

// Tag is a capability/affiliation bit on an Entity.
type Tag uint16

const (
	TagPlayer Tag = 1 << iota
	TagAlly
	TagEnemy
	TagBoss
	TagCollectible
	TagSecret
	TagVehicle
)

// Health is the optional health capability of an entity.
type Health struct {
	Current float64
	Max     float64
}

// Fraction returns Current/Max in [0,1].
func (h Health) Fraction() float64 {
	if h.Max <= 0 {
		return 0
	}
	return clamp01(h.Current / h.Max)
}

// Entity is a snapshot of an actor as the world reports it. Capabilities are
// queried rather than assumed: an entity without a Health pointer cannot be
// damaged or targeted.
type Entity struct {
	ID              EntityID
	Label           string
	Position        Vec3
	Velocity        Vec3
	Tags            Tag
	Health          *Health
	CollectibleKind string
}

func (e Entity) Has(t Tag) bool  { return e.Tags&t != 0 }
func (e Entity) HasHealth() bool { return e.Health != nil }
func (e Entity) IsBoss() bool    { return e.Has(TagBoss) }

// IsAlive is true for entities with health above zero. Entities without the
// health capability are never alive in the combat sense.
func (e Entity) IsAlive() bool { return e.Health != nil && e.Health.Current > 0 }

// HealthFraction returns 0 for entities without health.
func (e Entity) HealthFraction() float64 {
	if e.Health == nil {
		return 0
	}
	return e.Health.Fraction()
}

// clone returns a copy whose Health does not alias the original.
func (e Entity) clone() Entity {
	if e.Health != nil {
		h := *e.Health
		e.Health = &h
	}
	return e
}

// WorldQuery is the narrow read interface controllers use to find actors.
type WorldQuery interface {
	EntitiesInRadius(center Vec3, radius float64, match func(Entity) bool) []Entity
}

// Registry is the host-owned entity store. Controllers only see copies.
type Registry struct {
	byID  map[EntityID]*Entity
	order []EntityID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[EntityID]*Entity)}
}

// Put inserts or replaces an entity.
func (r *Registry) Put(e Entity) {
	if _, ok := r.byID[e.ID]; !ok {
		r.order = append(r.order, e.ID)
	}
	c := e.clone()
	r.byID[e.ID] = &c
}

// Remove deletes an entity. Unknown IDs are ignored.
func (r *Registry) Remove(id EntityID) {
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns a copy of the entity.
func (r *Registry) Get(id EntityID) (Entity, bool) {
	e, ok := r.byID[id]
	if !ok {
		return Entity{}, false
	}
	return e.clone(), true
}

// Mutate applies fn to the stored entity in place.
func (r *Registry) Mutate(id EntityID, fn func(*Entity)) bool {
	e, ok := r.byID[id]
	if !ok {
		return false
	}
	fn(e)
	return true
}

// ApplyDamage reduces an entity's health, clamped at zero. Returns the
// damage actually dealt.
func (r *Registry) ApplyDamage(id EntityID, amount float64) float64 {
	e, ok := r.byID[id]
	if !ok || e.Health == nil || e.Health.Current <= 0 || amount <= 0 {
		return 0
	}
	dealt := amount
	if dealt > e.Health.Current {
		dealt = e.Health.Current
	}
	e.Health.Current -= dealt
	return dealt
}

// Select returns copies of every entity matching fn, in insertion order.
func (r *Registry) Select(match func(Entity) bool) []Entity {
	var out []Entity
	for _, id := range r.order {
		e := r.byID[id]
		if match == nil || match(*e) {
			out = append(out, e.clone())
		}
	}
	return out
}

// EntitiesInRadius implements WorldQuery. Results are sorted nearest first.
func (r *Registry) EntitiesInRadius(center Vec3, radius float64, match func(Entity) bool) []Entity {
	out := r.Select(func(e Entity) bool {
		if e.Position.DistXZ(center) > radius {
			return false
		}
		return match == nil || match(e)
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position.DistXZ(center) < out[j].Position.DistXZ(center)
	})
	return out
}

// Len returns the number of stored entities.
func (r *Registry) Len() int { return len(r.order) }

// findEntity is a linear lookup over a snapshot slice.
func findEntity(list []Entity, id EntityID) (Entity, bool) {
	for _, e := range list {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}
