package receiver

import (
	"sync"

	"github.com/banshee-data/angle.receiver/internal/angle"
)

// Owner is the object whose orientation follows the sensor.
type Owner interface {
	Rotation() angle.Rotator
	SetRotation(angle.Rotator)
}

// Transform is a minimal concurrency-safe Owner.
type Transform struct {
	mu  sync.RWMutex
	rot angle.Rotator
}

// NewTransform returns a Transform starting at rot.
func NewTransform(rot angle.Rotator) *Transform {
	return &Transform{rot: rot}
}

func (t *Transform) Rotation() angle.Rotator {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rot
}

func (t *Transform) SetRotation(r angle.Rotator) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rot = r
}
