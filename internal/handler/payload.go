package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/m7modfayez/sakr-sports/internal/catalog"
)

var errNotObject = errors.New("request body must be a JSON object")

// payload keeps the raw JSON members of a request body so handlers can tell
// an absent field from an explicit null and coerce loosely typed values.
type payload map[string]json.RawMessage

func decodePayload(c echo.Context) (payload, error) {
	body := c.Request().Body
	if body == nil {
		return nil, errNotObject
	}

	var p payload
	dec := json.NewDecoder(body)
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	if p == nil {
		p = payload{}
	}
	return p, nil
}

func (p payload) has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p payload) isNull(key string) bool {
	raw, ok := p[key]
	return ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// str returns the member when it is a JSON string
func (p payload) str(key string) (string, bool) {
	raw, ok := p[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// number accepts a JSON number or a string holding one
func (p payload) number(key string) (float64, bool) {
	raw, ok := p[key]
	if !ok {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// strings returns the member when it is an array of strings
func (p payload) strings(key string) ([]string, bool) {
	raw, ok := p[key]
	if !ok || p.isNull(key) {
		return nil, false
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false
	}
	if list == nil {
		list = []string{}
	}
	return list, true
}

// categoryRef reads category_id; null, empty and "none" mean no category
func (p payload) categoryRef() (string, bool) {
	if p.isNull("category_id") {
		return "", true
	}
	s, ok := p.str("category_id")
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == catalog.NoCategory {
		s = ""
	}
	return s, true
}
