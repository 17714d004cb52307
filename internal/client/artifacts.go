package client

import (
	"sync"

	"github.com/google/uuid"

	"github.com/capitalize-ai/multimodal-gateway/internal/model"
)

// Artifacts lists the files uploaded during a session.
type Artifacts struct {
	mu    sync.Mutex
	items []model.UploadedArtifact
}

// NewArtifacts creates an empty artifact list.
func NewArtifacts() *Artifacts {
	return &Artifacts{}
}

// Add records an artifact, assigning an ID when it has none.
func (a *Artifacts) Add(item model.UploadedArtifact) model.UploadedArtifact {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	a.mu.Lock()
	a.items = append(a.items, item)
	a.mu.Unlock()
	return item
}

// Remove drops the artifact with the given ID and reports whether it existed.
func (a *Artifacts) Remove(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, item := range a.items {
		if item.ID == id {
			a.items = append(a.items[:i], a.items[i+1:]...)
			return true
		}
	}
	return false
}

// List returns a copy of all artifacts, oldest first.
func (a *Artifacts) List() []model.UploadedArtifact {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.UploadedArtifact, len(a.items))
	copy(out, a.items)
	return out
}
