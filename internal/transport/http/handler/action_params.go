package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/visitsafe-api/internal/domain"
)

// maxActionBody bounds the body read by the visitor action endpoint.
const maxActionBody = 64 << 10

// maxJSONNesting bounds unwrapping of JSON documents encoded as JSON strings.
const maxJSONNesting = 3

// parseActionRequest merges query string and body parameters (body wins)
// into one typed request.
func parseActionRequest(r *http.Request) (domain.ActionRequest, error) {
	values := canonicalParams(r.URL.Query())
	if r.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxActionBody))
		if err != nil {
			return domain.ActionRequest{}, fmt.Errorf("read body: %v: %w", err, domain.ErrBadRequest)
		}
		for k, vs := range canonicalParams(decodeActionBody(r.Header.Get("Content-Type"), raw)) {
			if len(vs) > 0 && strings.TrimSpace(vs[0]) != "" {
				values.Set(k, vs[0])
			}
		}
	}
	get := func(key string) string { return strings.TrimSpace(values.Get(key)) }

	action, err := domain.ParseAction(get("action"))
	if err != nil {
		return domain.ActionRequest{}, err
	}
	req := domain.ActionRequest{
		Action:      action,
		RequestID:   get("requestId"),
		ResidencyID: get("residencyId"),
		ResidentID:  get("residentId"),
		Token:       get("token"),
		ActionBy:    get("actionBy"),
	}
	return req, req.Validate()
}

// paramAliases maps alternate parameter names to their canonical key.
var paramAliases = map[string]string{
	"approvalToken": "token",
	"username":      "actionBy",
}

// canonicalParams folds aliases into canonical keys. Within one source the
// canonical name wins over its alias.
func canonicalParams(in url.Values) url.Values {
	out := url.Values{}
	for k, vs := range in {
		if _, alias := paramAliases[k]; !alias && len(vs) > 0 {
			out.Set(k, vs[0])
		}
	}
	for alias, key := range paramAliases {
		if v := in.Get(alias); v != "" && strings.TrimSpace(out.Get(key)) == "" {
			out.Set(key, v)
		}
	}
	return out
}

// decodeActionBody accepts form bodies, JSON objects, JSON objects encoded
// as a JSON string, and query-string text sent as text/plain.
func decodeActionBody(contentType string, raw []byte) url.Values {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/x-www-form-urlencoded" {
		vals, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil
		}
		return vals
	}
	if vals, ok := decodeJSONValues(raw, maxJSONNesting); ok {
		return vals
	}
	if bytes.ContainsRune(raw, '=') {
		if vals, err := url.ParseQuery(string(raw)); err == nil {
			return vals
		}
	}
	return nil
}

func decodeJSONValues(raw []byte, depth int) (url.Values, bool) {
	if depth == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, false
	}
	switch v := doc.(type) {
	case map[string]any:
		vals := url.Values{}
		for k, field := range v {
			if s, ok := scalarString(field); ok {
				vals.Set(k, s)
			}
		}
		return vals, true
	case string:
		return decodeJSONValues([]byte(strings.TrimSpace(v)), depth-1)
	}
	return nil, false
}

func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}
