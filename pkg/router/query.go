package router

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/vango-dev/gousse/pkg/dom"
)

// ParseQuery parses a query string. A key without "=" maps to "true".
// Values are percent-decoded; keys are kept as written.
func ParseQuery(qs string) map[string]string {
	params := make(map[string]string)
	for _, part := range strings.Split(qs, "&") {
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			params[key] = "true"
			continue
		}
		if decoded, err := url.PathUnescape(value); err == nil {
			value = decoded
		}
		params[key] = value
	}
	return params
}

// BuildQuery encodes params as a query string, sorted by key. Zero values,
// nil and false are left out.
func BuildQuery(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if dom.Truthy(v) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+encodeComponent(fmt.Sprint(params[k])))
	}
	return strings.Join(parts, "&")
}

func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
