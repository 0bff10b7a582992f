// Package modules contains the built-in feed modules and the named
// constructor registry the controller instantiates them through.
package modules

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/slatebar/slatebar/pkg/bar"
	"github.com/slatebar/slatebar/pkg/clients"
)

// Deps are the shared client handles modules may capture. Clients are
// reference-shared; a client outlives any single module using it.
type Deps struct {
	Desktop clients.DesktopClient
	Audio   clients.AudioClient
	Power   clients.PowerClient

	// RetryTimeout is the fixed wait between client connection attempts.
	RetryTimeout time.Duration
}

// Options are a module's decoded per-instance settings from the config file.
type Options map[string]string

// Str reads a string option with a fallback.
func (o Options) Str(key, fallback string) string {
	if v, ok := o[key]; ok {
		return v
	}
	return fallback
}

// Factory builds one module instance.
type Factory func(deps Deps, opts Options) (bar.Module, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register adds a module factory by name. Built-in modules register from
// their init functions.
func Register(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = factory
}

// New instantiates the named module.
func New(name string, deps Deps, opts Options) (bar.Module, error) {
	factoriesMu.RLock()
	factory, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown module %q (have %v)", name, Names())
	}
	return factory(deps, opts)
}

// reloadChan adapts a module's reload subscription into a selectable channel.
// Fires arriving while the module is busy coalesce into one.
func reloadChan(ctx context.Context, env bar.Env) <-chan struct{} {
	ch := make(chan struct{}, 1)
	go func() {
		for env.Reload.Wait(ctx) {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}()
	return ch
}

// Names lists the registered module names, sorted.
func Names() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
