package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Choice is a selectable field that is either unset or holds a value.
// Blank values are never considered a selection.
type Choice[T ~string] struct {
	value T
	set   bool
}

func Pick[T ~string](v T) Choice[T] {
	if strings.TrimSpace(string(v)) == "" {
		return Choice[T]{}
	}
	return Choice[T]{value: v, set: true}
}

func (c Choice[T]) Get() (T, bool) {
	return c.value, c.set
}

func (c Choice[T]) IsSet() bool {
	return c.set
}

// IsZero lets bson omitempty drop unset choices.
func (c Choice[T]) IsZero() bool {
	return !c.set
}

func (c Choice[T]) OrElse(fallback T) T {
	if !c.set {
		return fallback
	}
	return c.value
}

func (c Choice[T]) String() string {
	return string(c.value)
}

func (c Choice[T]) MarshalJSON() ([]byte, error) {
	if !c.set {
		return []byte("null"), nil
	}
	return json.Marshal(string(c.value))
}

func (c *Choice[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Choice[T]{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("choice must be a string or null: %w", err)
	}
	*c = Pick(T(s))
	return nil
}

func (c Choice[T]) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if !c.set {
		return bson.TypeNull, nil, nil
	}
	return bson.MarshalValue(string(c.value))
}

func (c *Choice[T]) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bson.TypeNull, bson.TypeUndefined:
		*c = Choice[T]{}
		return nil
	case bson.TypeString:
		s, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
		if !ok {
			return fmt.Errorf("malformed choice value")
		}
		*c = Pick(T(s))
		return nil
	default:
		return fmt.Errorf("cannot decode %s into a choice", t)
	}
}
