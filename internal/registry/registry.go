package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/XavierBriggs/Pallas/internal/league"
)

// CompetitionRegistry manages the league services of all configured competitions
type CompetitionRegistry struct {
	competitions map[string]*league.Service
	mu           sync.RWMutex
}

// NewCompetitionRegistry creates a new competition registry
func NewCompetitionRegistry() *CompetitionRegistry {
	return &CompetitionRegistry{
		competitions: make(map[string]*league.Service),
	}
}

// Register adds a competition to the registry
func (r *CompetitionRegistry) Register(svc *league.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := svc.Key()
	if key == "" {
		return fmt.Errorf("competition key is empty")
	}
	if _, exists := r.competitions[key]; exists {
		return fmt.Errorf("competition %s is already registered", key)
	}

	r.competitions[key] = svc
	return nil
}

// Get retrieves a competition by key
func (r *CompetitionRegistry) Get(key string) (*league.Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, exists := r.competitions[key]
	return svc, exists
}

// GetAll returns all registered competitions ordered by key
func (r *CompetitionRegistry) GetAll() []*league.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	services := make([]*league.Service, 0, len(r.competitions))
	for _, svc := range r.competitions {
		services = append(services, svc)
	}
	sort.Slice(services, func(i, j int) bool {
		return services[i].Key() < services[j].Key()
	})
	return services
}

// Count returns the number of registered competitions
func (r *CompetitionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.competitions)
}
