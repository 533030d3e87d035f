// Package reqtemplate implements per-protocol request templates: compiled,
// mustache-templated builders that render a concrete wire request from an
// evaluation context (spec §4.B).
package reqtemplate

import (
	"sort"
	"strings"

	"github.com/hanpama/protograph/internal/evalctx"
	"github.com/hanpama/protograph/internal/mustache"
)

// HTTPHeader is one templated header entry; order is preserved because the
// spec requires stable, ordered rendering.
type HTTPHeader struct {
	Name  string
	Value *mustache.Template
}

// HTTPQueryParam is one templated query parameter.
type HTTPQueryParam struct {
	Name        string
	Value       *mustache.Template
	SkipIfEmpty bool
}

// HTTP is the HTTP request template (spec §4.B "HTTP template").
type HTTP struct {
	URL      *mustache.Template
	Method   string
	Headers  []HTTPHeader
	Query    []HTTPQueryParam
	Body     *mustache.DynamicValue
	Encoding string // e.g. "json" (default), "form"

	// GroupBy names the fields used to batch this template's calls through
	// a DataLoader (spec §4.C). Empty means no batching.
	GroupBy []string
}

// HTTPRequest is the rendered, ready-to-send wire request.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string][]string
	Body    []byte
}

// Render substitutes mustache segments from ctx into the template,
// producing a concrete HTTPRequest. Query parameters marked SkipIfEmpty are
// omitted when their rendered value is empty; parameter order is preserved
// otherwise (spec §4.B).
func (t *HTTP) Render(ctx evalctx.Context) (*HTTPRequest, error) {
	url := mustache.Render(t.URL, ctx)

	var query []string
	for _, q := range t.Query {
		v := mustache.Render(q.Value, ctx)
		if q.SkipIfEmpty && v == "" {
			continue
		}
		query = append(query, q.Name+"="+v)
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url = url + sep + strings.Join(query, "&")
	}

	headers := make(map[string][]string, len(t.Headers))
	for _, h := range t.Headers {
		headers[h.Name] = append(headers[h.Name], mustache.Render(h.Value, ctx))
	}

	var body []byte
	if t.Body != nil {
		rendered, err := t.Body.Render(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := encodeBody(t.Encoding, rendered)
		if err != nil {
			return nil, err
		}
		body = encoded
	}

	method := t.Method
	if method == "" {
		method = "GET"
	}

	return &HTTPRequest{Method: method, URL: url, Headers: headers, Body: body}, nil
}

// CacheKey returns the stable tuple used to derive the Cache(max_age,io) key
// (spec §4.C "HTTP: canonicalized URL ... and
// canonicalized body"). Headers participate only through an explicit
// allowlist, since most headers (auth, tracing) must not fragment the cache.
func (t *HTTP) CacheKey(ctx evalctx.Context, headerAllowlist []string) (method, canonicalURL string, canonicalBody []byte, err error) {
	req, err := t.Render(ctx)
	if err != nil {
		return "", "", nil, err
	}
	canonicalURL = canonicalizeURL(req.URL)
	for _, allowed := range headerAllowlist {
		for name, vals := range req.Headers {
			if strings.EqualFold(name, allowed) {
				canonicalURL += "\x00" + strings.ToLower(allowed) + "=" + strings.Join(vals, ",")
			}
		}
	}
	return req.Method, canonicalURL, canonicalizeBody(req.Body), nil
}

func canonicalizeURL(raw string) string {
	base, query, found := strings.Cut(raw, "?")
	if !found {
		return base
	}
	parts := strings.Split(query, "&")
	sort.Strings(parts)
	return base + "?" + strings.Join(parts, "&")
}

// canonicalizeBody normalizes whitespace-insensitive JSON bodies is out of
// scope for byte equality; callers that need semantic JSON equality should
// decode first. For key derivation, raw bytes are sufficient because the
// same rendered template always produces the same bytes for the same
// arguments.
func canonicalizeBody(b []byte) []byte { return b }
