package mapview

import (
	"strings"
	"sync"
)

// Layer identifies one of the two marker layers.
type Layer string

const (
	LayerPersonal Layer = "personal"
	LayerShared   Layer = "shared"
)

func (l Layer) prefix() string {
	if l == LayerShared {
		return "s-"
	}
	return "p-"
}

// MarkerTable maps record ids to the marker handles the client renders.
// Records never hold their marker; the table is the only link between them.
type MarkerTable struct {
	mu      sync.RWMutex
	handles map[Layer]map[string]string // record id -> handle
}

func NewMarkerTable() *MarkerTable {
	return &MarkerTable{
		handles: map[Layer]map[string]string{
			LayerPersonal: {},
			LayerShared:   {},
		},
	}
}

// Put registers a marker for the record and returns its handle.
func (t *MarkerTable) Put(layer Layer, recordID string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	handle := layer.prefix() + recordID
	t.handles[layer][recordID] = handle
	return handle
}

// Handle returns the live handle for a record, if it has a marker.
func (t *MarkerTable) Handle(layer Layer, recordID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.handles[layer][recordID]
	return h, ok
}

// Lookup resolves a handle back to its layer and record id. Handles of
// dropped markers do not resolve.
func (t *MarkerTable) Lookup(handle string) (Layer, string, bool) {
	var layer Layer
	switch {
	case strings.HasPrefix(handle, LayerPersonal.prefix()):
		layer = LayerPersonal
	case strings.HasPrefix(handle, LayerShared.prefix()):
		layer = LayerShared
	default:
		return "", "", false
	}

	id := handle[len(layer.prefix()):]
	if _, ok := t.Handle(layer, id); !ok {
		return "", "", false
	}
	return layer, id, true
}

// Reset drops every handle on the layer.
func (t *MarkerTable) Reset(layer Layer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handles[layer] = map[string]string{}
}

func (t *MarkerTable) Len(layer Layer) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handles[layer])
}
