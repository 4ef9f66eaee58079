package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DescriptorRegistry is the read-only-after-startup lookup table of
// receiver descriptors, keyed by case-insensitive name.
type DescriptorRegistry struct {
	mu          sync.RWMutex
	descriptors map[string]ReceiverDescriptor
}

func NewDescriptorRegistry() *DescriptorRegistry {
	return &DescriptorRegistry{descriptors: make(map[string]ReceiverDescriptor)}
}

// NewDescriptorRegistryFrom registers every descriptor or fails on the
// first invalid or duplicate entry.
func NewDescriptorRegistryFrom(descriptors ...ReceiverDescriptor) (*DescriptorRegistry, error) {
	registry := NewDescriptorRegistry()
	for _, descriptor := range descriptors {
		if err := registry.Register(descriptor); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (r *DescriptorRegistry) Register(descriptor ReceiverDescriptor) error {
	if err := descriptor.Validate(); err != nil {
		return err
	}
	name := descriptor.NormalizedName()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.descriptors[name]; exists {
		return fmt.Errorf("core: receiver already registered: %s", name)
	}
	r.descriptors[name] = descriptor
	return nil
}

func (r *DescriptorRegistry) Get(name string) (ReceiverDescriptor, bool) {
	key := strings.TrimSpace(strings.ToLower(name))
	if key == "" {
		return ReceiverDescriptor{}, false
	}
	r.mu.RLock()
	descriptor, ok := r.descriptors[key]
	r.mu.RUnlock()
	return descriptor, ok
}

func (r *DescriptorRegistry) List() []ReceiverDescriptor {
	r.mu.RLock()
	keys := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		keys = append(keys, name)
	}
	r.mu.RUnlock()
	sort.Strings(keys)
	descriptors := make([]ReceiverDescriptor, 0, len(keys))
	r.mu.RLock()
	for _, name := range keys {
		descriptors = append(descriptors, r.descriptors[name])
	}
	r.mu.RUnlock()
	return descriptors
}

var _ Registry = (*DescriptorRegistry)(nil)
