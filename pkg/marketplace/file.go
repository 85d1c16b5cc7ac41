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

package marketplace

import (
	"context"
	"os"

	"github.com/mitchellh/go-homedir"

	"gitlab.com/davidxarnold/hostwatch/pkg/core"
)

// fileProvider replays a saved inventory document from disk. Useful for dry
// runs against a captured response.
type fileProvider struct {
	path string
}

// Fetch reads and decodes the file on every call so edits are picked up
// between cycles.
func (p *fileProvider) Fetch(ctx context.Context, _ Query) (*core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Op: "read", Err: err}
	}

	path, err := homedir.Expand(p.path)
	if err != nil {
		return nil, &FetchError{Op: "read", Err: err}
	}

	// #nosec G304 - path comes from the operator's own configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FetchError{Op: "read", Err: err}
	}

	snap, err := DecodeSnapshot(data)
	if err != nil {
		return nil, &FetchError{Op: "decode", Err: err}
	}
	return snap, nil
}

// nolint:gochecknoinits // registration-style init keeps provider wiring local to this file.
func init() {
	RegisterProvider(ProviderFile, func(opts Options) Provider { return &fileProvider{path: opts.URL} })
}
