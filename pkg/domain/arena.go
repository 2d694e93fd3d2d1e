package domain

// arena keeps one entity kind in insertion order with an id -> position index.
type arena[K comparable, V any] struct {
	keys  []K
	items []V
	index map[K]int
}

func newArena[K comparable, V any]() arena[K, V] {
	return arena[K, V]{index: make(map[K]int)}
}

func (a *arena[K, V]) has(k K) bool {
	_, ok := a.index[k]
	return ok
}

func (a *arena[K, V]) add(k K, v V) bool {
	if a.has(k) {
		return false
	}
	a.index[k] = len(a.items)
	a.keys = append(a.keys, k)
	a.items = append(a.items, v)
	return true
}

func (a *arena[K, V]) get(k K) (V, bool) {
	i, ok := a.index[k]
	if !ok {
		var zero V
		return zero, false
	}
	return a.items[i], true
}

func (a *arena[K, V]) set(k K, v V) bool {
	i, ok := a.index[k]
	if !ok {
		return false
	}
	a.items[i] = v
	return true
}

func (a *arena[K, V]) remove(k K) bool {
	i, ok := a.index[k]
	if !ok {
		return false
	}
	a.keys = append(a.keys[:i], a.keys[i+1:]...)
	a.items = append(a.items[:i], a.items[i+1:]...)
	delete(a.index, k)
	for j := i; j < len(a.keys); j++ {
		a.index[a.keys[j]] = j
	}
	return true
}

func (a *arena[K, V]) len() int { return len(a.items) }

func (a *arena[K, V]) each(fn func(V)) {
	for _, v := range a.items {
		fn(v)
	}
}

// relation is a bidirectional link index; both directions keep link order.
type relation[A comparable, B comparable] struct {
	forward  map[A][]B
	backward map[B][]A
}

func newRelation[A comparable, B comparable]() relation[A, B] {
	return relation[A, B]{forward: make(map[A][]B), backward: make(map[B][]A)}
}

func (r *relation[A, B]) linked(a A, b B) bool {
	for _, x := range r.forward[a] {
		if x == b {
			return true
		}
	}
	return false
}

func (r *relation[A, B]) link(a A, b B) bool {
	if r.linked(a, b) {
		return false
	}
	r.forward[a] = append(r.forward[a], b)
	r.backward[b] = append(r.backward[b], a)
	return true
}

func (r *relation[A, B]) unlink(a A, b B) bool {
	if !r.linked(a, b) {
		return false
	}
	r.forward[a] = without(r.forward[a], b)
	if len(r.forward[a]) == 0 {
		delete(r.forward, a)
	}
	r.backward[b] = without(r.backward[b], a)
	if len(r.backward[b]) == 0 {
		delete(r.backward, b)
	}
	return true
}

func (r *relation[A, B]) targets(a A) []B {
	return append([]B(nil), r.forward[a]...)
}

func (r *relation[A, B]) sources(b B) []A {
	return append([]A(nil), r.backward[b]...)
}

func (r *relation[A, B]) dropSource(a A) {
	for _, b := range r.targets(a) {
		r.unlink(a, b)
	}
}

func without[T comparable](in []T, v T) []T {
	out := in[:0]
	for _, x := range in {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
