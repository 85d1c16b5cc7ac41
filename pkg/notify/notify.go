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
Package notify delivers summaries of newly discovered hosts to chat
destinations.
*/
package notify

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

const (
	// MaxMessageLength is the hard cap on a text message.
	MaxMessageLength = 4096
	// MaxCaptionLength is the hard cap on a photo caption.
	MaxCaptionLength = 1024
)

const ellipsis = "..."

// Delivery is the outcome of sending to one destination.
type Delivery struct {
	Destination string
	Err         error
}

// Notifier sends text and image payloads to every configured destination.
// Each destination is attempted independently and reported separately.
type Notifier interface {
	SendText(ctx context.Context, text string) []Delivery
	SendPhoto(ctx context.Context, photo []byte, caption string) []Delivery
}

// Failed returns the deliveries that did not succeed.
func Failed(ds []Delivery) []Delivery {
	var out []Delivery
	for _, d := range ds {
		if d.Err != nil {
			out = append(out, d)
		}
	}
	return out
}

// Truncate caps text at MaxMessageLength characters, replacing the tail with
// an ellipsis when it is cut.
func Truncate(text string) string {
	return truncateTo(text, MaxMessageLength)
}

func truncateTo(text string, limit int) string {
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	return string(r[:limit-len(ellipsis)]) + ellipsis
}

// LogNotifier writes notifications to the logger. It is used when no chat
// destination is configured.
type LogNotifier struct{}

// SendText logs the message.
func (LogNotifier) SendText(_ context.Context, text string) []Delivery {
	log.WithField("destination", "log").Info(text)
	return []Delivery{{Destination: "log"}}
}

// SendPhoto logs the size of the image that would have been sent.
func (LogNotifier) SendPhoto(_ context.Context, photo []byte, caption string) []Delivery {
	log.WithField("destination", "log").Info(fmt.Sprintf("table image (%d bytes): %s", len(photo), caption))
	return []Delivery{{Destination: "log"}}
}
