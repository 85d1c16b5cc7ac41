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

// Package core contains the inventory types and the matching/scoring logic
// for hostwatch. Nothing in here performs network I/O or rendering.
package core

import "fmt"

const (
	statusOnline  = "Online"
	statusOffline = "Offline"
)

// Location is where a host is physically hosted.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// String joins the location as "city, country".
func (l Location) String() string {
	return fmt.Sprintf("%s, %s", l.City, l.Country)
}

// CPUSpec describes the CPU offering of a host.
type CPUSpec struct {
	Type   string  `json:"type"`
	Amount int     `json:"amount"`
	Price  float64 `json:"price"`
}

// GPUGroup is one GPU model offered by a host. Price is per device per hour.
type GPUGroup struct {
	Model  string  `json:"model"`
	Amount int     `json:"amount"`
	Price  float64 `json:"price"`
}

// Host is a single rentable machine from an inventory snapshot.
type Host struct {
	ID       string     `json:"id"`
	Location Location   `json:"location"`
	Online   bool       `json:"online"`
	CPU      CPUSpec    `json:"cpu"`
	GPUs     []GPUGroup `json:"gpus,omitempty"`
}

// Status returns the human readable online status of the host.
func (h *Host) Status() string {
	if h.Online {
		return statusOnline
	}
	return statusOffline
}

// Snapshot is one parsed inventory response. Hosts keep the order in which
// they appeared in the upstream document.
type Snapshot struct {
	Success bool
	Hosts   []Host
	// Rejected holds one error per host record that failed validation.
	Rejected []error
}

// Criteria are the hardware filters applied to every snapshot.
type Criteria struct {
	CPUType       string
	GPURules      []GPURule
	MaxGPUPrice   float64 // 0 means no ceiling
	MinEfficiency float64 // <= 0 disables the filter
	EnableCPU     bool
	EnableGPU     bool
}

// CPUNode is the presentation record for a host matching the CPU criteria.
type CPUNode struct {
	ID       string `json:"id"`
	Location string `json:"location"`
	Type     string `json:"type"`
	Amount   int    `json:"amount"`
	Price    string `json:"price"`
	Status   string `json:"status"`
}

// GPUNode is the presentation record for a GPU group matching a rule.
type GPUNode struct {
	ID            string   `json:"id"`
	Location      string   `json:"location"`
	Model         string   `json:"model"`
	Amount        int      `json:"amount"`
	Price         string   `json:"price"`
	Status        string   `json:"status"`
	CostPerDevice string   `json:"costPerDevice"`
	Multiplier    *float64 `json:"multiplier,omitempty"`
	Efficiency    *float64 `json:"efficiency,omitempty"`
	Calculation   string   `json:"calculation,omitempty"`
}

// Result is the outcome of classifying one snapshot.
type Result struct {
	NewCPU     []Host    `json:"newCPU"`
	CurrentCPU []CPUNode `json:"currentCPU"`
	NewGPU     []Host    `json:"newGPU"`
	CurrentGPU []GPUNode `json:"currentGPU"`
}

// HasNew reports whether any category discovered a host this cycle.
func (r *Result) HasNew() bool {
	return len(r.NewCPU) > 0 || len(r.NewGPU) > 0
}

func formatPrice(p float64) string {
	return fmt.Sprintf("$%.2f", p)
}
