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
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"

	"gitlab.com/davidxarnold/hostwatch/pkg/core"
	"gitlab.com/davidxarnold/hostwatch/pkg/util"
)

// DefaultTensorDockURL is the public host-node listing endpoint.
const DefaultTensorDockURL = "https://dashboard.tensordock.com/api/session/deploy/hostnodes"

const maxBodyBytes = 32 << 20

// tensorDockProvider fetches the host-node listing over HTTP.
type tensorDockProvider struct {
	opts Options
	http *retryablehttp.Client
}

// NewTensorDockProvider returns an HTTP backed Provider.
func NewTensorDockProvider(opts Options) Provider {
	if opts.URL == "" {
		opts.URL = DefaultTensorDockURL
	}
	return &tensorDockProvider{
		opts: opts,
		http: util.NewHTTPClient("marketplace", opts.RetryMax),
	}
}

// Fetch performs a single GET of the inventory endpoint.
func (p *tensorDockProvider) Fetch(ctx context.Context, q Query) (*core.Snapshot, error) {
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, p.opts.URL, nil)
	if err != nil {
		return nil, &FetchError{Op: "request", Err: err}
	}
	req.URL.RawQuery = q.Values().Encode()
	req.Header.Set("Accept", "application/json")

	log.WithField("url", req.URL.String()).Debug("fetching inventory")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, &FetchError{Op: "get", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Op: "status", Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Op: "read", Err: err}
	}

	snap, err := DecodeSnapshot(body)
	if err != nil {
		return nil, &FetchError{Op: "decode", Err: err}
	}
	return snap, nil
}

// nolint:gochecknoinits // registration-style init keeps provider wiring local to this file.
func init() {
	RegisterProvider(ProviderTensorDock, NewTensorDockProvider)
}
