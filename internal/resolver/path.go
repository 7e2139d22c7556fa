package resolver

import (
	"strconv"
	"strings"
)

// lookupPath walks a dotted path such as "a.b.[0].c" from the document root.
// Missing members, out of range indexes and type mismatches all yield ok=false.
// A present JSON null is returned as (nil, true).
func lookupPath(path string, doc any) (any, bool) {
	if path == "" {
		return nil, false
	}

	current := doc
	for _, seg := range strings.Split(path, ".") {
		if current == nil {
			return nil, false
		}

		if idx, isIndex := indexSegment(seg); isIndex {
			arr, ok := current.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, false
			}
			current = arr[idx]
			continue
		}

		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		// Missing keys read as null, like a dict lookup with a default.
		current = obj[seg]
	}

	return current, true
}

// indexSegment recognises "[N]". isIndex is true for any bracketed segment;
// idx is -1 when the brackets do not hold a plain non-negative integer.
func indexSegment(seg string) (idx int, isIndex bool) {
	if !strings.HasPrefix(seg, "[") || !strings.HasSuffix(seg, "]") {
		return 0, false
	}
	if len(seg) < 2 {
		return -1, true
	}
	digits := seg[1 : len(seg)-1]
	if digits == "" {
		return -1, true
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return -1, true
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return -1, true
	}
	return n, true
}
