package reqtemplate

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// encodeBody serializes a rendered DynamicValue per the template's declared
// encoding. "json" (the default) is the common case; "form" supports
// application/x-www-form-urlencoded upstreams.
func encodeBody(encoding string, v any) ([]byte, error) {
	switch encoding {
	case "", "json":
		return json.Marshal(v)
	case "form":
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("reqtemplate: form encoding requires an object body, got %T", v)
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		values := url.Values{}
		for _, k := range keys {
			values.Set(k, fmt.Sprint(m[k]))
		}
		return []byte(values.Encode()), nil
	default:
		return nil, fmt.Errorf("reqtemplate: unsupported encoding %q", encoding)
	}
}

// JoinURL has no caller in this module; batched HTTP group_by rendering
// passes the comma-joined keys through the template's parent value instead.
func JoinURL(base string, params map[string][]string) string {
	if len(params) == 0 {
		return base
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		for _, v := range params[k] {
			parts = append(parts, k+"="+url.QueryEscape(v))
		}
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + strings.Join(parts, "&")
}
