// SPDX-License-Identifier: MIT
// Copyright (c) 2026 KalaKit
// Source: github.com/KalaKit/KalaData

package kdat

import (
	"fmt"

	"github.com/woozymasta/pathrules"
)

// compressMatcher holds compiled rules selecting compression candidates.
// A nil matcher means every entry is a candidate.
type compressMatcher struct {
	matcher *pathrules.Matcher
}

// newCompressMatcher compiles compression path rules.
func newCompressMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*compressMatcher, error) {
	rules = normalizeCompressRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidCompressPattern, err)
	}

	return &compressMatcher{matcher: matcher}, nil
}

// normalizeCompressRules normalizes rule patterns and drops empty patterns.
func normalizeCompressRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := NormalizePath(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether the entry at path should attempt compression.
// Without rules every entry attempts it; the final storage decision is
// still made by payload size.
func (m *compressMatcher) Match(path string) bool {
	if m == nil || m.matcher == nil {
		return true
	}

	candidate := NormalizePath(path)
	if candidate == "" {
		return false
	}

	return m.matcher.Included(candidate, false)
}
