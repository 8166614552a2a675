package collection

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kailas-cloud/audiodex/internal/domain"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Collection is a searchable descriptor collection and the id namespaces it accepts (immutable).
type Collection struct {
	name       string
	namespaces []string
}

func validateName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s name is required", kind)
	}
	if len(name) > 64 {
		return fmt.Errorf("%s name too long (max 64)", kind)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%s name %q must be alphanumeric with underscores and hyphens", kind, name)
	}
	return nil
}

// New validates and creates a Collection. Namespace names follow the collection name rules.
func New(name string, namespaces []string) (Collection, error) {
	if err := validateName("collection", name); err != nil {
		return Collection{}, err
	}
	seen := make(map[string]bool, len(namespaces))
	for _, ns := range namespaces {
		if err := validateName("namespace", ns); err != nil {
			return Collection{}, err
		}
		if seen[ns] {
			return Collection{}, fmt.Errorf("duplicate namespace %q in collection %q", ns, name)
		}
		seen[ns] = true
	}
	return Collection{name: name, namespaces: append([]string(nil), namespaces...)}, nil
}

// Name returns the collection name.
func (c Collection) Name() string { return c.name }

// Namespaces returns the configured id namespaces.
func (c Collection) Namespaces() []string { return c.namespaces }

// HasNamespace reports whether ns belongs to the collection.
func (c Collection) HasNamespace(ns string) bool {
	for _, n := range c.namespaces {
		if n == ns {
			return true
		}
	}
	return false
}

// IDPrefixes resolves a comma-separated namespace restriction into id prefixes.
// An empty restriction yields nil (no scoping).
func (c Collection) IDPrefixes(restriction string) ([]string, error) {
	restriction = strings.TrimSpace(restriction)
	if restriction == "" {
		return nil, nil
	}
	var prefixes []string
	seen := make(map[string]bool)
	for _, ns := range strings.Split(restriction, ",") {
		ns = strings.TrimSpace(ns)
		if ns == "" {
			continue
		}
		if !c.HasNamespace(ns) {
			return nil, domain.NewValidationError(
				"unknown namespace %q for collection %q, allowed: %s",
				ns, c.name, strings.Join(c.namespaces, ", "),
			)
		}
		if seen[ns] {
			continue
		}
		seen[ns] = true
		prefixes = append(prefixes, ns+":")
	}
	return prefixes, nil
}

// Registry resolves collection names. Safe for concurrent reads.
type Registry struct {
	byName map[string]Collection
	names  []string
}

// NewRegistry builds a registry from name -> namespaces.
func NewRegistry(config map[string][]string) (*Registry, error) {
	r := &Registry{byName: make(map[string]Collection, len(config))}
	for name, namespaces := range config {
		c, err := New(name, namespaces)
		if err != nil {
			return nil, err
		}
		r.byName[name] = c
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Get returns the named collection or an error wrapping domain.ErrNotFound.
func (r *Registry) Get(name string) (Collection, error) {
	c, ok := r.byName[name]
	if !ok {
		return Collection{}, fmt.Errorf("collection %q: %w", name, domain.ErrNotFound)
	}
	return c, nil
}

// List returns all collections sorted by name.
func (r *Registry) List() []Collection {
	out := make([]Collection, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.byName[n])
	}
	return out
}
