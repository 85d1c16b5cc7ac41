/*
Copyright 2025 David Arnold
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package marketplace fetches inventory snapshots from a host marketplace and
turns them into validated core records.
*/
package marketplace

import (
	"context"

	"gitlab.com/davidxarnold/hostwatch/pkg/core"
)

// Provider is implemented by inventory sources.
type Provider interface {
	Fetch(ctx context.Context, q Query) (*core.Snapshot, error)
}

// ProviderFactory creates a new Provider instance.
type ProviderFactory func(opts Options) Provider

// Provider names accepted by the provider config key.
const (
	ProviderTensorDock = "tensordock"
	ProviderFile       = "file"
)

var providerRegistry = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory under the given name.
// It is typically called from init() functions in provider-specific files.
func RegisterProvider(name string, factory ProviderFactory) {
	providerRegistry[name] = factory
}

// LookupProvider returns a Provider for the given name, or nil when the name
// is unknown.
func LookupProvider(name string, opts Options) Provider {
	if factory, ok := providerRegistry[name]; ok {
		return factory(opts)
	}
	return nil
}
