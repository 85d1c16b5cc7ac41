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

// Package render turns classification results into tables, images and
// chat messages. It is stateless.
package render

import (
	"strconv"

	"gitlab.com/davidxarnold/hostwatch/pkg/core"
)

const (
	placeholder = "-"
	notAvail    = "N/A"
)

// Headers are the column titles of the combined table.
var Headers = []string{
	"Index", "ID", "Type", "Amount", "Price ($)", "Cost/Device ($)", "Multiplier", "Efficiency", "Calculation",
}

// Row is one line of the combined CPU/GPU table.
type Row struct {
	Index         int
	ID            string
	Type          string
	Amount        int
	Price         string
	CostPerDevice string
	Multiplier    string
	Efficiency    string
	Calculation   string
}

// Cells returns the row in Headers order.
func (r Row) Cells() []string {
	return []string{
		strconv.Itoa(r.Index),
		r.ID,
		r.Type,
		strconv.Itoa(r.Amount),
		r.Price,
		r.CostPerDevice,
		r.Multiplier,
		r.Efficiency,
		r.Calculation,
	}
}

// ShortenID keeps the first two and last two characters of a host id for
// display. It is not unique and must never be used as a key.
func ShortenID(id string) string {
	r := []rune(id)
	if len(r) <= 4 {
		return id
	}
	return string(r[:2]) + ".." + string(r[len(r)-2:])
}

// BuildRows lists the current CPU nodes followed by the current GPU nodes,
// numbered from 1.
func BuildRows(res *core.Result) []Row {
	rows := make([]Row, 0, len(res.CurrentCPU)+len(res.CurrentGPU))
	index := 1

	for _, n := range res.CurrentCPU {
		rows = append(rows, Row{
			Index:         index,
			ID:            ShortenID(n.ID),
			Type:          n.Type,
			Amount:        n.Amount,
			Price:         n.Price,
			CostPerDevice: placeholder,
			Multiplier:    placeholder,
			Efficiency:    placeholder,
			Calculation:   placeholder,
		})
		index++
	}

	for _, n := range res.CurrentGPU {
		row := Row{
			Index:         index,
			ID:            ShortenID(n.ID),
			Type:          n.Model,
			Amount:        n.Amount,
			Price:         n.Price,
			CostPerDevice: n.CostPerDevice,
			Multiplier:    notAvail,
			Efficiency:    notAvail,
			Calculation:   notAvail,
		}
		if n.Multiplier != nil {
			row.Multiplier = strconv.FormatFloat(*n.Multiplier, 'f', -1, 64)
		}
		if n.Efficiency != nil {
			row.Efficiency = strconv.FormatFloat(*n.Efficiency, 'f', 2, 64)
		}
		if n.Calculation != "" {
			row.Calculation = n.Calculation
		}
		rows = append(rows, row)
		index++
	}

	return rows
}
