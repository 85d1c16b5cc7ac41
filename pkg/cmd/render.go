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

package cmd

import (
	"fmt"
	"io"
	"strings"

	"gitlab.com/davidxarnold/hostwatch/pkg/core"
	"gitlab.com/davidxarnold/hostwatch/pkg/render"
	"gitlab.com/davidxarnold/hostwatch/pkg/util"
	"gitlab.com/davidxarnold/hostwatch/pkg/watch"
)

const (
	outputTxt    = "txt"
	outputPretty = "pretty"
	outputJSON   = "json"
	outputNone   = "none"
)

// newPrinter returns the console printer for an output format. "none"
// returns a nil printer.
func newPrinter(w io.Writer, output string) (watch.Printer, error) {
	switch strings.ToLower(output) {
	case outputJSON:
		return func(res *core.Result, _ []render.Row) error {
			return render.JSON(w, res)
		}, nil
	case outputPretty:
		return func(_ *core.Result, rows []render.Row) error {
			render.Text(w, rows, render.StylePretty, util.TerminalWidth())
			return nil
		}, nil
	case outputNone:
		return nil, nil
	case outputTxt, "":
		return func(_ *core.Result, rows []render.Row) error {
			if len(rows) == 0 {
				_, err := fmt.Fprintln(w, "No matching hosts")
				return err
			}
			render.Text(w, rows, render.StylePlain, 0)
			return nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q, want one of: txt|pretty|json|none", output)
	}
}
