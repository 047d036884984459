package graph

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Record Helpers
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getStringSliceFromRecord(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return []string{}
	}
	if slice, ok := val.([]interface{}); ok {
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok {
				result = append(result, str)
			}
		}
		return result
	}
	return []string{}
}

// uniqueStrings deduplicates while preserving first-seen order.
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}

// ============================================================================
// JSON Ingestion Helpers
// ============================================================================

// scalarToString renders a raw JSON scalar as a business id string. Numeric
// ids are common in exports and must round-trip without a float suffix.
func scalarToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// decodeScalar returns a JSON value if it is a storable scalar (string,
// number, bool). Nested objects and arrays are rejected.
func decodeScalar(raw json.RawMessage) (interface{}, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, false
	}
	switch trimmed[0] {
	case '{', '[':
		return nil, false
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		return s, true
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, false
		}
		return b, true
	default:
		if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return i, true
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, false
		}
		return f, true
	}
}

// decodeStringList accepts a JSON array of scalars and normalizes every entry
// to a string, dropping entries that cannot be rendered.
func decodeStringList(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		if s := scalarToString(item); s != "" {
			result = append(result, s)
		}
	}
	return result
}
