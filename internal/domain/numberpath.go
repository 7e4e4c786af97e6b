package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxNumberDepth caps how many dot-separated components a paragraph number
// may carry ("3.4.1.2" has four).
const MaxNumberDepth = 4

// NumberPath is a parsed paragraph number of a rechtsoverweging,
// e.g. "3.3.1" -> [3 3 1]. Components are non-negative, 1..4 of them.
type NumberPath []int

// ParseNumberPath parses a dot-separated paragraph number. Leading zeros
// ("03") and empty components are rejected.
func ParseNumberPath(s string) (NumberPath, error) {
	parts := strings.Split(s, ".")
	if len(parts) == 0 || len(parts) > MaxNumberDepth {
		return nil, fmt.Errorf("number %q: must have 1..%d components", s, MaxNumberDepth)
	}
	path := make(NumberPath, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("number %q: empty component", s)
		}
		if len(p) > 1 && p[0] == '0' {
			return nil, fmt.Errorf("number %q: leading zero in component %q", s, p)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("number %q: invalid component %q", s, p)
		}
		path = append(path, n)
	}
	return path, nil
}

// String renders the path back to its dot-separated textual form.
func (p NumberPath) String() string {
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// Depth is the nesting depth: "3" -> 0, "3.3.1" -> 2.
func (p NumberPath) Depth() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// IsChildOf reports whether p is a strict extension of parent
// ("3.3.1" is a child of "3.3" and of "3", not of "3.3.1").
func (p NumberPath) IsChildOf(parent NumberPath) bool {
	if len(p) <= len(parent) {
		return false
	}
	for i, n := range parent {
		if p[i] != n {
			return false
		}
	}
	return true
}

// CompareNumberPaths orders paths numerically, component by component;
// a shorter path sorts before its own extensions ("3" < "3.1" < "4").
func CompareNumberPaths(a, b NumberPath) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
