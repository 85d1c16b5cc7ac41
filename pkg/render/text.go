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

package render

import (
	"encoding/json"
	"io"

	pt "github.com/jedib0t/go-pretty/v6/table"

	"gitlab.com/davidxarnold/hostwatch/pkg/core"
)

// Style selects how Text draws the table.
type Style int

const (
	// StylePlain is a borderless, kubectl-like layout.
	StylePlain Style = iota
	// StylePretty draws boxed, coloured output.
	StylePretty
)

func headerRow() pt.Row {
	row := make(pt.Row, len(Headers))
	for i, h := range Headers {
		row[i] = h
	}
	return row
}

// Text writes rows as a table to w. maxWidth > 0 caps the rendered line length.
func Text(w io.Writer, rows []Row, style Style, maxWidth int) {
	t := pt.NewWriter()
	t.SetOutputMirror(w)

	switch style {
	case StylePretty:
		t.SetStyle(pt.StyleColoredBright)
	default:
		t.Style().Options.DrawBorder = false
		t.Style().Options.SeparateColumns = false
		t.Style().Options.SeparateFooter = false
		t.Style().Options.SeparateHeader = false
		t.Style().Options.SeparateRows = false
	}
	if maxWidth > 0 {
		t.SetAllowedRowLength(maxWidth)
	}

	t.AppendHeader(headerRow())
	for _, r := range rows {
		t.AppendRow(pt.Row{
			r.Index, r.ID, r.Type, r.Amount, r.Price,
			r.CostPerDevice, r.Multiplier, r.Efficiency, r.Calculation,
		})
	}
	t.Render()
}

// JSON writes the classification result as indented JSON.
func JSON(w io.Writer, res *core.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(res)
}
