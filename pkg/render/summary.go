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
	"fmt"
	"strings"

	"gitlab.com/davidxarnold/hostwatch/pkg/core"
)

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escapeMarkdown escapes the characters with meaning in Telegram's legacy
// Markdown mode.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func code(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "'") + "`"
}

// NewNodesSummary builds the Markdown notification for the new hosts of one
// cycle. It returns "" when nothing new was found.
func NewNodesSummary(res *core.Result, criteria *core.Criteria) string {
	if !res.HasNew() {
		return ""
	}

	var b strings.Builder

	if len(res.NewCPU) > 0 {
		fmt.Fprintf(&b, "*Found %d new hostnodes with %s CPU:*\n", len(res.NewCPU), escapeMarkdown(criteria.CPUType))
		for i := range res.NewCPU {
			h := &res.NewCPU[i]
			fmt.Fprintf(&b, "%d. %s %s, %d cores, $%.2f/h, %s (%s)\n",
				i+1, code(h.ID), escapeMarkdown(h.CPU.Type), h.CPU.Amount, h.CPU.Price,
				escapeMarkdown(h.Location.String()), h.Status())
		}
	}

	if len(res.NewGPU) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		if criteria.MaxGPUPrice > 0 {
			fmt.Fprintf(&b, "*Found %d new hostnodes with GPUs up to price $%.2f:*\n", len(res.NewGPU), criteria.MaxGPUPrice)
		} else {
			fmt.Fprintf(&b, "*Found %d new hostnodes with matching GPUs:*\n", len(res.NewGPU))
		}
		for i := range res.NewGPU {
			h := &res.NewGPU[i]
			fmt.Fprintf(&b, "%d. %s %s, %s (%s)\n",
				i+1, code(h.ID), gpuList(h, criteria.GPURules), escapeMarkdown(h.Location.String()), h.Status())
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// gpuList describes the GPU groups of a host that match a rule.
func gpuList(h *core.Host, rules []core.GPURule) string {
	var parts []string
	for _, g := range h.GPUs {
		if g.Amount <= 0 {
			continue
		}
		if _, ok := core.MatchGPURule(g.Model, rules); !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%dx %s @ $%.2f", g.Amount, escapeMarkdown(g.Model), g.Price))
	}
	if len(parts) == 0 {
		return "GPU"
	}
	return strings.Join(parts, ", ")
}

// RowsCaption is a short caption for the table image.
func RowsCaption(rows []Row, res *core.Result) string {
	return fmt.Sprintf("%d matching offers (%d CPU, %d GPU)", len(rows), len(res.CurrentCPU), len(res.CurrentGPU))
}
