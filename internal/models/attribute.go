// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ValueType identifies how an attribute's raw string value is interpreted.
type ValueType string

const (
	ValueString  ValueType = "string"
	ValueNumber  ValueType = "number"
	ValueBoolean ValueType = "boolean"
	ValueJSON    ValueType = "json"
)

// Attribute is a single dynamic key/value entry attached to an item.
// Storage is always a string; Type selects the decode function. The pair
// (ItemID, Key) is unique, so setting an attribute is an upsert.
type Attribute struct {
	ItemID    uuid.UUID `json:"item_id"`
	Key       string    `json:"key"`
	RawValue  string    `json:"raw_value"`
	Type      ValueType `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Value is the decoded form of an attribute: a tagged union over the four
// supported value types. Exactly one of the payload fields is meaningful,
// selected by Type.
type Value struct {
	Type ValueType
	Str  string
	Num  float64
	Bool bool
	JSON json.RawMessage
}

// ValueOf maps a runtime Go value to a tagged Value. Strings, numbers, and
// booleans map to their own variants; anything else is serialized as JSON.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case string:
		return Value{Type: ValueString, Str: x}
	case bool:
		return Value{Type: ValueBoolean, Bool: x}
	case int:
		return Value{Type: ValueNumber, Num: float64(x)}
	case int32:
		return Value{Type: ValueNumber, Num: float64(x)}
	case int64:
		return Value{Type: ValueNumber, Num: float64(x)}
	case uint:
		return Value{Type: ValueNumber, Num: float64(x)}
	case uint64:
		return Value{Type: ValueNumber, Num: float64(x)}
	case float32:
		return Value{Type: ValueNumber, Num: float64(x)}
	case float64:
		return Value{Type: ValueNumber, Num: x}
	case json.RawMessage:
		return Value{Type: ValueJSON, JSON: x}
	default:
		// Structured records become JSON. Marshal failure is unreachable for
		// plain data values, so a failed marshal stores the literal "null".
		b, err := json.Marshal(v)
		if err != nil {
			b = []byte("null")
		}
		return Value{Type: ValueJSON, JSON: b}
	}
}

// Encode serializes the value to its raw storage string.
func (v Value) Encode() string {
	switch v.Type {
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueBoolean:
		return strconv.FormatBool(v.Bool)
	case ValueJSON:
		return string(v.JSON)
	default:
		return v.Str
	}
}

// DecodeValue parses a raw storage string according to the given type.
// A decode failure returns an explicit error; callers that want to degrade
// gracefully can fall back to a string-typed value holding the raw input.
func DecodeValue(t ValueType, raw string) (Value, error) {
	switch t {
	case ValueNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("decode number %q: %w", raw, err)
		}
		return Value{Type: ValueNumber, Num: n}, nil
	case ValueBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Value{}, fmt.Errorf("decode boolean %q: %w", raw, err)
		}
		return Value{Type: ValueBoolean, Bool: b}, nil
	case ValueJSON:
		if !json.Valid([]byte(raw)) {
			return Value{}, fmt.Errorf("decode json: invalid document")
		}
		return Value{Type: ValueJSON, JSON: json.RawMessage(raw)}, nil
	default:
		return Value{Type: ValueString, Str: raw}, nil
	}
}

// Any returns the decoded payload as a plain interface value, suitable for
// JSON responses.
func (v Value) Any() any {
	switch v.Type {
	case ValueNumber:
		return v.Num
	case ValueBoolean:
		return v.Bool
	case ValueJSON:
		return v.JSON
	default:
		return v.Str
	}
}
