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
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Query holds the server-side filters sent with every inventory request.
type Query struct {
	MinVCPUs   int
	MinStorage int
	MinRAM     int
	// MaxGPUCount is only sent when set.
	MaxGPUCount *int
}

// Values encodes the query using the upstream parameter names.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("minvCPUs", strconv.Itoa(q.MinVCPUs))
	v.Set("minStorage", strconv.Itoa(q.MinStorage))
	if q.MinRAM > 0 {
		v.Set("minRAM", strconv.Itoa(q.MinRAM))
	}
	if q.MaxGPUCount != nil {
		v.Set("maxGPUCount", strconv.Itoa(*q.MaxGPUCount))
	}
	return v
}

// Options configure a Provider.
type Options struct {
	// URL is the inventory endpoint, or a file path for the file provider.
	URL      string
	Timeout  time.Duration
	RetryMax int
}

// FetchError wraps any failure to obtain a usable snapshot.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MalformedHostError reports a host record that is missing a required field.
type MalformedHostError struct {
	ID    string
	Field string
	Err   error
}

func (e *MalformedHostError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed host record %q: %s: %v", e.ID, e.Field, e.Err)
	}
	return fmt.Sprintf("malformed host record %q: missing %s", e.ID, e.Field)
}

func (e *MalformedHostError) Unwrap() error {
	return e.Err
}
