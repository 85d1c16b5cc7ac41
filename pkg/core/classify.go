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

package core

import (
	"fmt"
	"math"
	"strings"
)

// Efficiency returns multiplier*count/totalPrice rounded half to even at two
// decimals. The second return value is false when the multiplier is unknown or
// the total price is not positive.
func Efficiency(multiplier *float64, count int, totalPrice float64) (float64, bool) {
	if multiplier == nil || totalPrice <= 0 {
		return 0, false
	}
	raw := (*multiplier * float64(count)) / totalPrice
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, false
	}
	return math.RoundToEven(raw*100) / 100, true
}

// Classify matches every host of the snapshot against the criteria. Hosts not
// yet in seen for a category are added to it and returned in that category's
// new list; every matching host is returned in the current lists.
//
// Classify does not retract new hosts that the efficiency floor later removes
// from CurrentGPU.
func Classify(snap *Snapshot, criteria *Criteria, seen *SeenSet) Result {
	var res Result
	if snap == nil {
		return res
	}

	for i := range snap.Hosts {
		host := &snap.Hosts[i]

		if criteria.EnableCPU && strings.Contains(host.CPU.Type, criteria.CPUType) {
			if seen.Add(CategoryCPU, host.ID) {
				res.NewCPU = append(res.NewCPU, *host)
			}
			res.CurrentCPU = append(res.CurrentCPU, cpuNode(host))
		}

		if !criteria.EnableGPU {
			continue
		}
		for _, g := range host.GPUs {
			node, ok := matchGPU(host, g, criteria)
			if !ok {
				continue
			}
			if seen.Add(CategoryGPU, host.ID) {
				res.NewGPU = append(res.NewGPU, *host)
			}
			res.CurrentGPU = append(res.CurrentGPU, node)
		}
	}

	if criteria.MinEfficiency > 0 {
		res.CurrentGPU = filterEfficiency(res.CurrentGPU, criteria.MinEfficiency)
	}

	return res
}

func cpuNode(host *Host) CPUNode {
	return CPUNode{
		ID:       host.ID,
		Location: host.Location.String(),
		Type:     host.CPU.Type,
		Amount:   host.CPU.Amount,
		Price:    formatPrice(host.CPU.Price),
		Status:   host.Status(),
	}
}

func matchGPU(host *Host, g GPUGroup, criteria *Criteria) (GPUNode, bool) {
	if g.Amount <= 0 {
		return GPUNode{}, false
	}
	rule, ok := MatchGPURule(g.Model, criteria.GPURules)
	if !ok {
		return GPUNode{}, false
	}
	if criteria.MaxGPUPrice != 0 && g.Price > criteria.MaxGPUPrice {
		return GPUNode{}, false
	}

	total := g.Price * float64(g.Amount)
	node := GPUNode{
		ID:            host.ID,
		Location:      host.Location.String(),
		Model:         g.Model,
		Amount:        g.Amount,
		Price:         formatPrice(total),
		Status:        host.Status(),
		CostPerDevice: formatPrice(g.Price),
		Multiplier:    rule.Multiplier,
	}
	if eff, ok := Efficiency(rule.Multiplier, g.Amount, total); ok {
		node.Efficiency = &eff
	}
	if rule.Multiplier != nil {
		node.Calculation = fmt.Sprintf("(%.2f x %d) / %.2f", *rule.Multiplier, g.Amount, total)
	}
	return node, true
}

func filterEfficiency(nodes []GPUNode, floor float64) []GPUNode {
	kept := nodes[:0]
	for _, n := range nodes {
		if n.Efficiency != nil && *n.Efficiency >= floor {
			kept = append(kept, n)
		}
	}
	return kept
}
