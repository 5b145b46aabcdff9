package apiclient

import (
	"bytes"
	"encoding/json"

	"snapfeed/internal/models"
)

// The API wraps payloads inconsistently: sometimes {data: X}, sometimes {data: {items|posts|...: [...]}},
// sometimes a bare array or object. These helpers resolve each shape in a fixed precedence order.

func object(raw json.RawMessage) map[string]json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func isPresent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// Unwrap returns body.data when present and non-null, else body.
func Unwrap(raw json.RawMessage) json.RawMessage {
	if data, ok := object(raw)["data"]; ok && isPresent(data) {
		return data
	}
	return raw
}

// ExtractList decodes the first array found at data.<key>, <key> (for each key in order),
// data, or the body itself. Anything else yields an empty slice.
func ExtractList[T any](raw json.RawMessage, keys ...string) ([]T, error) {
	top := object(raw)
	data := object(top["data"])

	var candidates []json.RawMessage
	for _, k := range keys {
		candidates = append(candidates, data[k])
	}
	for _, k := range keys {
		candidates = append(candidates, top[k])
	}
	candidates = append(candidates, top["data"], raw)

	for _, c := range candidates {
		if !isArray(c) {
			continue
		}
		var items []T
		if err := json.Unmarshal(c, &items); err != nil {
			return nil, models.NewDecodeError(err)
		}
		if items == nil {
			items = []T{}
		}
		return items, nil
	}
	return []T{}, nil
}

// ExtractEntity decodes the first object found at data.<key>, <key> (for each key in order),
// data, or the body itself.
func ExtractEntity[T any](raw json.RawMessage, keys ...string) (T, error) {
	var zero T
	top := object(raw)
	if top == nil {
		return zero, models.NewDecodeError(errNotObject)
	}
	data := object(top["data"])

	var candidates []json.RawMessage
	for _, k := range keys {
		candidates = append(candidates, data[k])
	}
	for _, k := range keys {
		candidates = append(candidates, top[k])
	}
	if data != nil {
		candidates = append(candidates, top["data"])
	}
	candidates = append(candidates, raw)

	for _, c := range candidates {
		if object(c) == nil {
			continue
		}
		var v T
		if err := json.Unmarshal(c, &v); err != nil {
			return zero, models.NewDecodeError(err)
		}
		return v, nil
	}
	return zero, models.NewDecodeError(errNotObject)
}

// Pagination is the pagination block of a listing, when the API sends one.
type Pagination struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
	// Present is false when the response carried no pagination block.
	Present bool
}

// ExtractPagination reads data.pagination or pagination, accepting both the
// page/limit/total and currentPage/pageSize/totalItems spellings. Missing values fall
// back to the requested page and limit with a zero total.
func ExtractPagination(raw json.RawMessage, page, limit int) Pagination {
	top := object(raw)
	block := object(object(top["data"])["pagination"])
	if block == nil {
		block = object(top["pagination"])
	}
	p := Pagination{Page: page, Limit: limit}
	if block == nil {
		return p
	}
	var w struct {
		Page        *int `json:"page"`
		CurrentPage *int `json:"currentPage"`
		Limit       *int `json:"limit"`
		PageSize    *int `json:"pageSize"`
		Total       *int `json:"total"`
		TotalItems  *int `json:"totalItems"`
		TotalPages  *int `json:"totalPages"`
	}
	b, _ := json.Marshal(block)
	if err := json.Unmarshal(b, &w); err != nil {
		return p
	}
	p.Present = true
	if v := firstPositive(w.Page, w.CurrentPage); v > 0 {
		p.Page = v
	}
	if v := firstPositive(w.Limit, w.PageSize); v > 0 {
		p.Limit = v
	}
	p.Total = firstPositive(w.Total, w.TotalItems)
	p.TotalPages = firstPositive(w.TotalPages)
	if p.TotalPages == 0 && p.Total > 0 && p.Limit > 0 {
		p.TotalPages = (p.Total + p.Limit - 1) / p.Limit
	}
	return p
}

// SuccessFlag reads a top-level success boolean. ok is false when the field is absent.
func SuccessFlag(raw json.RawMessage) (success, ok bool) {
	v, found := object(raw)["success"]
	if !found {
		return false, false
	}
	if err := json.Unmarshal(v, &success); err != nil {
		return false, false
	}
	return success, true
}

// Message reads a top-level message string.
func Message(raw json.RawMessage) string {
	return errorMessage(raw)
}

// StringField reads a string at data.<key> or <key>.
func StringField(raw json.RawMessage, key string) string {
	top := object(raw)
	for _, c := range []json.RawMessage{object(top["data"])[key], top[key]} {
		var s string
		if isPresent(c) && json.Unmarshal(c, &s) == nil && s != "" {
			return s
		}
	}
	return ""
}

// Field returns the raw value at data.<key> or <key>, or nil when neither is present.
func Field(raw json.RawMessage, key string) json.RawMessage {
	top := object(raw)
	if v := object(top["data"])[key]; isPresent(v) {
		return v
	}
	if v := top[key]; isPresent(v) {
		return v
	}
	return nil
}

func firstPositive(vals ...*int) int {
	for _, v := range vals {
		if v != nil && *v > 0 {
			return *v
		}
	}
	return 0
}

type normalizeError string

func (e normalizeError) Error() string { return string(e) }

const errNotObject = normalizeError("response is not a JSON object")
