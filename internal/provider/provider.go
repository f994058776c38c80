// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0
package provider

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/ironcore-dev/bmc-operator/api/v1alpha1"
	"github.com/ironcore-dev/bmc-operator/internal/bmcutil"
)

// Provider is the common interface used to establish and tear down sessions to the
// management controller. Implementations must release the session on Disconnect
// regardless of what happened in between.
type Provider interface {
	Connect(context.Context, *bmcutil.Connection) error
	Disconnect(context.Context) error
}

// BMCProvider is the interface for reading identity information from the
// management controller.
type BMCProvider interface {
	Provider

	// GetControllerInfo returns identity information of the connected controller.
	GetControllerInfo(context.Context) (*ControllerInfo, error)
}

// ControllerInfo holds identity information of a management controller.
type ControllerInfo struct {
	Manufacturer    string
	Model           string
	FirmwareVersion string
}

// SyslogProvider is the interface for the realization of SyslogForwarding objects
// over different providers.
type SyslogProvider interface {
	Provider

	// EnsureSyslogForwarding applies the desired syslog state on the connected
	// controller. Exactly one of the two toggle operations is issued, determined
	// solely by the desired state in the request. When DryRun is set, no mutating
	// call is made and the returned result is the controller's prediction of
	// whether the change would apply.
	EnsureSyslogForwarding(context.Context, *EnsureSyslogForwardingRequest) (*ApplyResult, error)
}

// EnsureSyslogForwardingRequest carries the desired state and the resolved staging
// share for a single ensure call.
type EnsureSyslogForwardingRequest struct {
	Forwarding *v1alpha1.SyslogForwarding
	Share      Share
	DryRun     bool
}

// Share is a fully resolved staging share, credentials included. It is consumed
// once per invocation and must never be logged.
type Share struct {
	Kind       v1alpha1.ShareKind
	Path       string
	MountPoint string
	Username   string
	Password   string
}

// ApplyResult is the normalized outcome of a configuration job on the controller.
type ApplyResult struct {
	// JobID is the controller-local identifier of the configuration job.
	JobID string

	// JobState is the terminal state the job reported, e.g. "Completed".
	JobState string

	// Status is the job's overall status, "Success" on a successful apply.
	Status string

	// Message is the human-readable completion message of the job.
	Message string

	// Changed reports whether the controller configuration was modified. It is
	// false when the controller reported a successful job without changes.
	Changed bool
}

var mu sync.RWMutex

// ProviderFunc returns a new [Provider] instance.
type ProviderFunc func() Provider

// providers holds all registered providers.
// It should be accessed in a thread-safe manner and kept private to this package.
var providers = make(map[string]ProviderFunc)

// Register registers a new provider with the given name.
// If a provider with the same name already exists, it panics.
func Register(name string, provider ProviderFunc) {
	mu.Lock()
	defer mu.Unlock()
	if provider == nil {
		panic("Register provider is nil")
	}
	if _, ok := providers[name]; ok {
		panic("Register called twice for provider " + name)
	}
	providers[name] = provider
}

// Get returns the provider with the given name.
// If the provider does not exist, it returns an error.
func Get(name string) (ProviderFunc, error) {
	mu.RLock()
	defer mu.RUnlock()
	provider, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	return provider, nil
}

// Providers returns a slice of all registered provider names.
func Providers() []string {
	mu.RLock()
	defer mu.RUnlock()
	return slices.Sorted(maps.Keys(providers))
}
