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
	"math/rand"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

const (
	defaultTerminalWidth = 160
	minTerminalWidth     = 80

	jitterLow  = 0.8
	jitterHigh = 1.2
)

// SetupLogger sets configuration for the default logger
func SetupLogger() (err error) {
	var (
		lf = strings.ToLower(viper.GetString("log-format"))
		ll = strings.ToLower(viper.GetString("log-level"))
	)

	// Set log format
	switch lf {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{
			DisableLevelTruncation: true,
			FullTimestamp:          true,
		})
	}

	if ll == "" {
		log.SetLevel(log.InfoLevel)
		return nil
	}
	lvl, err := log.ParseLevel(ll)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	return nil
}

// TerminalWidth returns the width of stdout when it is a terminal, or a
// fixed width suitable for log files otherwise.
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultTerminalWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w < minTerminalWidth {
		return defaultTerminalWidth
	}
	return w
}

// JitteredInterval scales base by a random factor in [0.8, 1.2). A nil rnd
// uses the global source.
func JitteredInterval(base time.Duration, rnd *rand.Rand) time.Duration {
	f := rand.Float64
	if rnd != nil {
		f = rnd.Float64
	}
	factor := jitterLow + f()*(jitterHigh-jitterLow)
	return time.Duration(float64(base) * factor)
}
