package tasks

import "sync"

// writeOnce is a concurrent map where the first value stored under a key is final.
type writeOnce[V any] struct {
	mu sync.Mutex
	m  map[string]V
}

func newWriteOnce[V any](size int) *writeOnce[V] {
	return &writeOnce[V]{m: make(map[string]V, size)}
}

// set stores v under k and reports whether it was the first write.
func (w *writeOnce[V]) set(k string, v V) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.m[k]; exists {
		return false
	}
	w.m[k] = v
	return true
}

func (w *writeOnce[V]) get(k string) (V, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.m[k]
	return v, ok
}

// snapshot copies the map.
func (w *writeOnce[V]) snapshot() map[string]V {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(map[string]V, len(w.m))
	for k, v := range w.m {
		out[k] = v
	}
	return out
}
