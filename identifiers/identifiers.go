// Package identifiers provides a mechanism to support the arbitrary registration and resolution
// of system/value tuples that act as identifiers (uniform resource identifiers).

package identifiers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// System is a named identifier system
type System struct {
	Name string `json:"name" yaml:"name"`
	URI  string `json:"uri" yaml:"uri"`
}

// Identifier is a system/value tuple
type Identifier struct {
	System string `json:"system" yaml:"system"`
	Value  string `json:"value" yaml:"value"`
}

func (id Identifier) String() string {
	return id.System + "|" + id.Value
}

// Resolver resolves an identifier into something more useful
type Resolver func(ctx context.Context, id Identifier) (interface{}, error)

var (
	systemsMu   sync.RWMutex
	systems     = make(map[string]System)
	resolversMu sync.RWMutex
	resolvers   = make(map[string]Resolver)
)

// ErrNoResolver is an error for when a valid resolver is not registered for the specified URI
var ErrNoResolver = errors.New("no resolver for uri")

// ErrNotFound is an error when an identifier is not found
var ErrNotFound = errors.New("identifier not found")

// ErrInvalid is an error when an identifier fails validation for its system
var ErrInvalid = errors.New("invalid identifier")

// Register registers an identifier system with the registry
func Register(name string, uri string) {
	systemsMu.Lock()
	defer systemsMu.Unlock()
	systems[uri] = System{Name: name, URI: uri}
}

// RegisterResolver registers a handler to resolve the value for the system/identifier tuple
func RegisterResolver(uri string, f Resolver) {
	resolversMu.Lock()
	defer resolversMu.Unlock()
	if _, dup := resolvers[uri]; dup {
		panic("identifiers: register resolver called twice for URI " + uri)
	}
	resolvers[uri] = f
}

// Resolve attempts to resolve the specified system/value tuple
func Resolve(ctx context.Context, id Identifier) (interface{}, error) {
	resolversMu.RLock()
	resolver, ok := resolvers[id.System]
	resolversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unable to resolve '%s': %w", id, ErrNoResolver)
	}
	return resolver(ctx, id)
}

// Systems returns a list of the supported identifier systems
func Systems() []string {
	systemsMu.RLock()
	defer systemsMu.RUnlock()
	list := make([]string, 0, len(systems))
	for uri := range systems {
		list = append(list, uri)
	}
	sort.Strings(list)
	return list
}

// Resolvers returns the list of registered identifier resolvers
func Resolvers() []string {
	resolversMu.RLock()
	defer resolversMu.RUnlock()
	list := make([]string, 0, len(resolvers))
	for uri := range resolvers {
		list = append(list, uri)
	}
	sort.Strings(list)
	return list
}

// Lookup returns the system for the specified uri
func Lookup(uri string) (System, bool) {
	systemsMu.RLock()
	defer systemsMu.RUnlock()
	val, ok := systems[uri]
	return val, ok
}

func init() {
	// individual healthcare identifier (consumer)
	Register("IHI", IHI)
	// healthcare provider identifier - individual
	Register("HPI-I", HPII)
	// healthcare provider identifier - organisation
	Register("HPI-O", HPIO)
	Register("Medicare card number", MedicareCardNumber)
	Register("Medicare individual reference number", MedicareIRN)
	// Department of Veterans' Affairs
	Register("DVA file number", DVAFileNumber)
	Register("HI Service vendor", VendorQualifier)
}
