package resolver

import "strings"

// filterExpr is a parsed BASE.[?FIELD=VALUE].RESULT expression.
type filterExpr struct {
	base   string
	field  string
	value  string
	result string
}

// parseFilter splits a filtered-array expression. BASE holds no '.', FIELD
// no '=', VALUE no ']'; every part must be non-empty. RESULT stops at the
// first newline.
func parseFilter(expr string) (filterExpr, bool) {
	dot := strings.IndexByte(expr, '.')
	if dot <= 0 || !strings.HasPrefix(expr[dot:], filterToken) {
		return filterExpr{}, false
	}
	base := expr[:dot]
	rest := expr[dot+len(filterToken):]

	eq := strings.IndexByte(rest, '=')
	if eq <= 0 {
		return filterExpr{}, false
	}
	field := rest[:eq]
	rest = rest[eq+1:]

	closing := strings.IndexByte(rest, ']')
	if closing <= 0 || !strings.HasPrefix(rest[closing:], "].") {
		return filterExpr{}, false
	}
	value := rest[:closing]
	result := rest[closing+2:]
	if nl := strings.IndexByte(result, '\n'); nl >= 0 {
		result = result[:nl]
	}
	if result == "" {
		return filterExpr{}, false
	}

	return filterExpr{base: base, field: field, value: value, result: result}, true
}

// lookupFiltered returns RESULT of the first element of BASE whose FIELD equals
// VALUE, or whose FIELD is a list containing VALUE.
func lookupFiltered(expr string, doc any) (any, bool) {
	f, ok := parseFilter(expr)
	if !ok {
		return nil, false
	}

	v, ok := lookupPath(f.base, doc)
	if !ok {
		return nil, false
	}
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}

	for _, item := range items {
		obj, isObj := item.(map[string]any)
		if !isObj {
			continue
		}
		if matches(obj[f.field], f.value) {
			res, found := obj[f.result]
			return res, found
		}
	}
	return nil, false
}

func matches(fieldVal any, want string) bool {
	switch fv := fieldVal.(type) {
	case string:
		return fv == want
	case []any:
		for _, el := range fv {
			if s, ok := el.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}
