// Package resolver evaluates {{...}} placeholders in mapper templates against
// arbitrary decoded JSON documents.
//
// Supported expressions:
//
//	{{key}}                         object member
//	{{key.subkey}}                  nested member
//	{{key.[0]}}                     sequence element
//	{{names.[?types=label].value}}  first element whose field matches
//	{{a || b || c}}                 first non-empty alternative
//
// Resolution never fails: anything that cannot be resolved becomes "".
//
// Resolved values are rendered as JSON text, not in any host language's
// display form: booleans are true/false, numbers keep their source text
// (1.0 stays 1.0), and lists and objects become compact JSON (["a"]).
package resolver

import "strings"

const (
	openDelim   = "{{"
	closeByte   = '}'
	altSep      = "||"
	filterToken = ".[?"
)

// Resolve substitutes every placeholder in template with its value in doc.
// A template without "{{" is returned unchanged.
func Resolve(template string, doc any) string {
	if !strings.Contains(template, openDelim) {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))

	rest := template
	for {
		start := strings.Index(rest, openDelim)
		if start < 0 {
			b.WriteString(rest)
			break
		}

		body, end, ok := placeholderAt(rest, start)
		if !ok {
			// Not a placeholder here: keep one byte and rescan from the next one.
			b.WriteString(rest[:start+1])
			rest = rest[start+1:]
			continue
		}

		b.WriteString(rest[:start])
		b.WriteString(resolveBody(body, doc))
		rest = rest[end:]
	}

	return b.String()
}

// placeholderAt reports the body of a placeholder opening at s[start:].
// The body is one or more bytes up to the first '}', which must be doubled.
// end is the index just past the closing "}}".
func placeholderAt(s string, start int) (body string, end int, ok bool) {
	bodyStart := start + len(openDelim)
	n := strings.IndexByte(s[bodyStart:], closeByte)
	if n <= 0 {
		return "", 0, false
	}
	closeAt := bodyStart + n
	if closeAt+1 >= len(s) || s[closeAt+1] != closeByte {
		return "", 0, false
	}
	return s[bodyStart:closeAt], closeAt + 2, true
}

// resolveBody evaluates a fallback chain, left to right.
func resolveBody(body string, doc any) string {
	for _, alt := range strings.Split(strings.TrimSpace(body), altSep) {
		v, ok := resolveExpr(strings.TrimSpace(alt), doc)
		if usable(v, ok) {
			return Stringify(v)
		}
	}
	return ""
}

// resolveExpr evaluates one alternative of a fallback chain.
func resolveExpr(expr string, doc any) (any, bool) {
	if expr == "" {
		return nil, false
	}
	if strings.Contains(expr, filterToken) {
		return lookupFiltered(expr, doc)
	}
	return lookupPath(expr, doc)
}

// usable reports whether a resolved value may win a fallback chain.
func usable(v any, ok bool) bool {
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr && s == "" {
		return false
	}
	return true
}
