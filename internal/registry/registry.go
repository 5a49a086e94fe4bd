package registry

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrUnknownService is returned when an operation targets a service that is
// not present in the registry.
var ErrUnknownService = errors.New("unknown service")

// Group identifies the deployment group a service belongs to.
type Group string

const (
	GroupProxy      Group = "proxy"
	GroupInference  Group = "inference"
	GroupRetrieval  Group = "retrieval"
	GroupMonitoring Group = "monitoring"
)

// ScopeAll selects every registered service.
const ScopeAll = "all"

// CheckKind selects how a service's liveness is probed.
type CheckKind string

const (
	// CheckHTTP probes an HTTP endpoint; 2xx means ready.
	CheckHTTP CheckKind = "http"
	// CheckTCP dials an address; a successful connection means ready.
	// Used for datastores that expose no HTTP health endpoint.
	CheckTCP CheckKind = "tcp"
)

// Schema selects an optional service-specific check applied to a 2xx body.
type Schema string

const (
	// SchemaNone accepts any 2xx body.
	SchemaNone Schema = ""
	// SchemaLiteLLM honors a JSON "status" field in the response body.
	SchemaLiteLLM Schema = "litellm"
	// SchemaModel requires the body to mention "ok" or "healthy".
	SchemaModel Schema = "model"
)

// HealthCheck describes how to probe one service.
type HealthCheck struct {
	Kind    CheckKind `yaml:"kind"`
	URL     string    `yaml:"url,omitempty"`
	Address string    `yaml:"address,omitempty"`
	Schema  Schema    `yaml:"schema,omitempty"`
}

// Handle identifies a service's compose unit for lifecycle commands.
type Handle struct {
	ComposeFile string `yaml:"compose_file"`
	Project     string `yaml:"project"`
	Service     string `yaml:"service"`
}

// ServiceDescriptor is the static metadata for one manageable unit.
// Descriptors are immutable after registry construction; all components hold
// references into the registry, never copies.
type ServiceDescriptor struct {
	Name         string        `yaml:"name"`
	Group        Group         `yaml:"group"`
	DependsOn    []string      `yaml:"depends_on,omitempty"`
	Replicable   bool          `yaml:"replicable,omitempty"`
	StartTimeout time.Duration `yaml:"start_timeout,omitempty"`
	Check        HealthCheck   `yaml:"check"`
	Handle       Handle        `yaml:"unit"`
}

const defaultStartTimeout = 120 * time.Second

// Registry is the static catalog of manageable services.
type Registry struct {
	services map[string]*ServiceDescriptor
	names    []string
}

// New validates the descriptors and builds a registry over them.
func New(descriptors []ServiceDescriptor) (*Registry, error) {
	if len(descriptors) == 0 {
		return nil, errors.New("registry contains no services")
	}

	services := make(map[string]*ServiceDescriptor, len(descriptors))
	names := make([]string, 0, len(descriptors))

	for i := range descriptors {
		desc := descriptors[i]
		if err := validateDescriptor(desc); err != nil {
			return nil, err
		}
		if _, ok := services[desc.Name]; ok {
			return nil, fmt.Errorf("service %q: duplicate name", desc.Name)
		}
		if desc.StartTimeout <= 0 {
			desc.StartTimeout = defaultStartTimeout
		}
		stored := desc
		services[desc.Name] = &stored
		names = append(names, desc.Name)
	}

	for _, desc := range services {
		for _, dep := range desc.DependsOn {
			if _, ok := services[dep]; !ok {
				return nil, fmt.Errorf("service %q: depends on %w %q", desc.Name, ErrUnknownService, dep)
			}
			if dep == desc.Name {
				return nil, fmt.Errorf("service %q: depends on itself", desc.Name)
			}
		}
	}

	sort.Strings(names)
	return &Registry{services: services, names: names}, nil
}

// Lookup returns the descriptor for the named service.
func (r *Registry) Lookup(name string) (*ServiceDescriptor, error) {
	desc, ok := r.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, name)
	}
	return desc, nil
}

// All returns every descriptor in name order.
func (r *Registry) All() []*ServiceDescriptor {
	result := make([]*ServiceDescriptor, 0, len(r.names))
	for _, name := range r.names {
		result = append(result, r.services[name])
	}
	return result
}

// Group returns the descriptors belonging to the given group, in name order.
func (r *Registry) Group(group Group) []*ServiceDescriptor {
	result := make([]*ServiceDescriptor, 0)
	for _, name := range r.names {
		if r.services[name].Group == group {
			result = append(result, r.services[name])
		}
	}
	return result
}

// Resolve maps an operation scope ("all", a group name, or a service name) to
// the set of descriptors it covers. An unknown scope is a configuration error
// and no lifecycle action may be attempted for it.
func (r *Registry) Resolve(scope string) ([]*ServiceDescriptor, error) {
	if scope == "" || scope == ScopeAll {
		return r.All(), nil
	}

	switch Group(scope) {
	case GroupProxy, GroupInference, GroupRetrieval, GroupMonitoring:
		services := r.Group(Group(scope))
		if len(services) == 0 {
			return nil, fmt.Errorf("group %q has no services", scope)
		}
		return services, nil
	}

	desc, err := r.Lookup(scope)
	if err != nil {
		return nil, err
	}
	return []*ServiceDescriptor{desc}, nil
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	return len(r.services)
}

func validateDescriptor(desc ServiceDescriptor) error {
	if desc.Name == "" {
		return errors.New("service name is required")
	}

	switch desc.Group {
	case GroupProxy, GroupInference, GroupRetrieval, GroupMonitoring:
	default:
		return fmt.Errorf("service %q: unknown group %q", desc.Name, desc.Group)
	}

	switch desc.Check.Kind {
	case CheckHTTP:
		if desc.Check.URL == "" {
			return fmt.Errorf("service %q: http check requires url", desc.Name)
		}
	case CheckTCP:
		if desc.Check.Address == "" {
			return fmt.Errorf("service %q: tcp check requires address", desc.Name)
		}
	default:
		return fmt.Errorf("service %q: unknown check kind %q", desc.Name, desc.Check.Kind)
	}

	if desc.Handle.ComposeFile == "" || desc.Handle.Project == "" || desc.Handle.Service == "" {
		return fmt.Errorf("service %q: unit requires compose_file, project and service", desc.Name)
	}

	if desc.StartTimeout < 0 {
		return fmt.Errorf("service %q: start_timeout cannot be negative", desc.Name)
	}

	return nil
}
