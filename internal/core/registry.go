package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DecodeFunc turns one client-submitted record into a validated Record.
// Failures are *ValidationError.
type DecodeFunc func(raw Payload) (Record, error)

// EntityDefinition describes how a synchronizable entity is decoded and keyed.
type EntityDefinition struct {
	Type EntityType

	// Table is the storage table name.
	Table string

	// BatchKey is the list key older clients use in sync bodies
	// (e.g. {"presencas": [...]}), accepted next to "records".
	BatchKey string

	// NaturalKey lists the business fields that identify a row
	// independently of its id. Empty when the entity has none.
	NaturalKey []string

	Decode DecodeFunc
}

// HasNaturalKey reports whether the entity can be matched by business key.
func (d EntityDefinition) HasNaturalKey() bool {
	return len(d.NaturalKey) > 0
}

var (
	registry   = make(map[EntityType]EntityDefinition)
	registryMu sync.RWMutex
)

// Register adds an entity definition to the registry.
// Panics if the entity is already registered.
func Register(def EntityDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Type]; exists {
		panic(fmt.Sprintf("entity already registered: %s", def.Type))
	}
	if def.Decode == nil {
		panic(fmt.Sprintf("entity %s registered without decoder", def.Type))
	}

	registry[def.Type] = def
}

// Get returns an entity definition.
// Returns false if not found.
func Get(entity EntityType) (EntityDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[entity]
	return def, ok
}

// Lookup resolves an entity by name, case-insensitively.
func Lookup(name string) (EntityDefinition, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for t, def := range registry {
		if strings.EqualFold(string(t), name) {
			return def, nil
		}
	}
	return EntityDefinition{}, fmt.Errorf("%w: %s", ErrUnknownEntity, name)
}

// All returns all registered definitions sorted by type.
func All() []EntityDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]EntityDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Type < result[j].Type
	})

	return result
}
