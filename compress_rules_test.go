// SPDX-License-Identifier: MIT
// Copyright (c) 2026 KalaKit
// Source: github.com/KalaKit/KalaData

package kdat

import (
	"strings"

	"github.com/woozymasta/pathrules"
)

// includeRules builds include rules from raw patterns for concise test setup.
func includeRules(patterns ...string) []pathrules.Rule {
	return rulesWithAction(pathrules.ActionInclude, patterns...)
}

// excludeRules builds exclude rules from raw patterns for concise test setup.
func excludeRules(patterns ...string) []pathrules.Rule {
	return rulesWithAction(pathrules.ActionExclude, patterns...)
}

// rulesWithAction builds rules with one action from raw patterns.
func rulesWithAction(action pathrules.Action, patterns ...string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		rules = append(rules, pathrules.Rule{
			Action:  action,
			Pattern: pattern,
		})
	}

	return rules
}
