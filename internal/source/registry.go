// Package source runs platform agents: one control shape shared by every
// platform, parameterized by a source client and a normalization function.
package source

import (
	"fmt"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
	"github.com/trueinf/Repushieldv7-sub000/internal/ports"
)

// Registry keeps a mapping from platform tags to their source clients.
type Registry struct {
	clients map[domain.Platform]ports.SourceClient
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: map[domain.Platform]ports.SourceClient{}}
}

// Register adds or replaces the client for its platform.
func (r *Registry) Register(client ports.SourceClient) {
	if r.clients == nil {
		r.clients = map[domain.Platform]ports.SourceClient{}
	}
	r.clients[client.Platform()] = client
}

// Resolve returns the client for a platform or an error if it is absent.
func (r *Registry) Resolve(platform domain.Platform) (ports.SourceClient, error) {
	if client, ok := r.clients[platform]; ok {
		return client, nil
	}
	return nil, fmt.Errorf("no source client registered for platform %s", platform)
}

// Platforms lists every registered platform in enum order.
func (r *Registry) Platforms() []domain.Platform {
	out := make([]domain.Platform, 0, len(r.clients))
	for _, p := range domain.Platforms() {
		if _, ok := r.clients[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
