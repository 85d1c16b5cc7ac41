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
	"strconv"
	"strings"
)

// GPURule pairs a lower-cased model pattern with an optional value multiplier.
// A nil Multiplier means the model is wanted but its value is unknown.
type GPURule struct {
	Pattern    string
	Multiplier *float64
}

// String renders the rule back in its "model,multiplier" config form.
func (r GPURule) String() string {
	if r.Multiplier == nil {
		return r.Pattern
	}
	return r.Pattern + "," + strconv.FormatFloat(*r.Multiplier, 'f', -1, 64)
}

// RuleError is returned for a GPU rule entry that cannot be parsed.
type RuleError struct {
	Entry  string
	Reason string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("invalid GPU rule %q: %s", e.Entry, e.Reason)
}

// ParseGPURule parses "model,multiplier" or a bare "model".
func ParseGPURule(entry string) (GPURule, error) {
	parts := strings.Split(entry, ",")
	if len(parts) > 2 {
		return GPURule{}, &RuleError{Entry: entry, Reason: "expected \"model\" or \"model,multiplier\""}
	}

	pattern := strings.ToLower(strings.TrimSpace(parts[0]))
	if pattern == "" {
		return GPURule{}, &RuleError{Entry: entry, Reason: "empty model"}
	}

	rule := GPURule{Pattern: pattern}
	if len(parts) == 2 {
		m, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return GPURule{}, &RuleError{Entry: entry, Reason: "multiplier is not a number"}
		}
		rule.Multiplier = &m
	}
	return rule, nil
}

// ParseGPURules parses every entry, keeping the valid rules in order. Invalid
// entries are reported in errs and otherwise ignored.
func ParseGPURules(entries []string) (rules []GPURule, errs []error) {
	for _, entry := range entries {
		rule, err := ParseGPURule(entry)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rules = append(rules, rule)
	}
	return rules, errs
}

// MatchGPURule resolves the rule for a GPU model string. Matching is case
// insensitive: an exact match wins, otherwise the longest pattern contained in
// the model, with ties going to the earlier rule.
func MatchGPURule(model string, rules []GPURule) (GPURule, bool) {
	model = strings.ToLower(model)

	for _, r := range rules {
		if r.Pattern == model {
			return r, true
		}
	}

	best := -1
	for i, r := range rules {
		if !strings.Contains(model, r.Pattern) {
			continue
		}
		if best < 0 || len(r.Pattern) > len(rules[best].Pattern) {
			best = i
		}
	}
	if best < 0 {
		return GPURule{}, false
	}
	return rules[best], true
}
