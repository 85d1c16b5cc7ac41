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

package util

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
)

const (
	defaultRetryMax     = 3
	defaultRetryWaitMin = 500 * time.Millisecond
	defaultRetryWaitMax = 5 * time.Second
)

const redacted = "<redacted>"

// leveledLogger adapts logrus to retryablehttp.LeveledLogger. When redact is
// set it is applied to the message and to every logged value.
type leveledLogger struct {
	entry  *log.Entry
	redact *strings.Replacer
}

func (l leveledLogger) clean(s string) string {
	if l.redact == nil {
		return s
	}
	return l.redact.Replace(s)
}

func (l leveledLogger) value(v interface{}) interface{} {
	if l.redact == nil {
		return v
	}
	switch x := v.(type) {
	case string:
		return l.clean(x)
	case *url.URL:
		if x == nil {
			return v
		}
		return l.clean(x.String())
	case error:
		return l.clean(x.Error())
	case fmt.Stringer:
		return l.clean(x.String())
	}
	return v
}

func (l leveledLogger) fields(kv []interface{}) *log.Entry {
	f := log.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			f[k] = l.value(kv[i+1])
		}
	}
	return l.entry.WithFields(f)
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.fields(kv).Error(l.clean(msg)) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.fields(kv).Debug(l.clean(msg)) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.fields(kv).Trace(l.clean(msg)) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.fields(kv).Warn(l.clean(msg)) }

// Redact replaces every non-empty secret in s.
func Redact(s string, secrets ...string) string {
	if r := newRedactor(secrets); r != nil {
		return r.Replace(s)
	}
	return s
}

func newRedactor(secrets []string) *strings.Replacer {
	var pairs []string
	for _, sec := range secrets {
		if sec != "" {
			pairs = append(pairs, sec, redacted)
		}
	}
	if len(pairs) == 0 {
		return nil
	}
	return strings.NewReplacer(pairs...)
}

// NewHTTPClient returns a retrying HTTP client that logs through logrus.
// retryMax < 0 selects the default retry count. Secrets never reach the log.
func NewHTTPClient(component string, retryMax int, secrets ...string) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.Logger = leveledLogger{
		entry:  log.WithField("component", component),
		redact: newRedactor(secrets),
	}
	c.RetryWaitMin = defaultRetryWaitMin
	c.RetryWaitMax = defaultRetryWaitMax
	c.RetryMax = defaultRetryMax
	if retryMax >= 0 {
		c.RetryMax = retryMax
	}
	return c
}
