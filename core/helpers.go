package core

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONRaw(w http.ResponseWriter, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

func parseFormInt(val string) int {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0
	}
	if n, err := strconv.Atoi(val); err == nil {
		return n
	}
	return 0
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		cp := make([]string, len(vals))
		copy(cp, vals)
		out[k] = cp
	}
	return out
}

// pickOption returns candidate when present in options, else the first option.
func pickOption(candidate string, options []string) string {
	for _, o := range options {
		if o == candidate {
			return candidate
		}
	}
	if len(options) > 0 {
		return options[0]
	}
	return ""
}

func intsToStrings(ints []int) []string {
	out := make([]string, 0, len(ints))
	for _, n := range ints {
		out = append(out, strconv.Itoa(n))
	}
	return out
}
