// Package plugin defines the output plugin contract a screenshot host drives,
// and the registry hosts look plugins up in.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/sendto/internal/model"
)

// ErrCanceled is returned when the user dismisses a dialog. It is an outcome,
// not a failure.
var ErrCanceled = errors.New("canceled by user")

// Result tags the outcome of a send.
type Result int

const (
	Success Result = iota
	Canceled
	Failed
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Canceled:
		return "canceled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// SendResult is what Send reports back to the host. Output is non-nil when the
// host should store an updated configuration.
type SendResult struct {
	Result  Result
	Message string
	Output  *model.Output
}

// Plugin is the capability set a host uses to manage and drive an output.
type Plugin interface {
	Name() string
	Description() string
	Editable() bool

	// CreateOutput and EditOutput return ErrCanceled when the dialog is dismissed.
	CreateOutput(ctx context.Context) (*model.Output, error)
	EditOutput(ctx context.Context, out model.Output) (*model.Output, error)

	SerializeOutput(out model.Output) model.OutputValues
	DeserializeOutput(values model.OutputValues) (*model.Output, error)

	// Send never returns an error; failures are reported in the result.
	Send(ctx context.Context, out model.Output, img image.Image) SendResult
}

// Registry holds plugins keyed by name.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds p. Names must be unique.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plugins[p.Name()]; ok {
		return fmt.Errorf("plugin %q already registered", p.Name())
	}
	r.plugins[p.Name()] = p
	return nil
}

// Lookup returns the plugin registered under name.
func (r *Registry) Lookup(name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[name]
	if !ok {
		return nil, fmt.Errorf("plugin %q not registered", name)
	}
	return p, nil
}

// Names returns the registered plugin names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
