package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

type Specification struct {
	Key   string `bson:"key" json:"key"`
	Value string `bson:"value" json:"value"`
}

// Specifications is the structured key/value set of a product. Order carries no
// meaning; values built from a map are sorted by key so output is stable.
type Specifications []Specification

func SpecificationsFromMap(m map[string]string) Specifications {
	out := make(Specifications, 0, len(m))
	for k, v := range m {
		if k = strings.TrimSpace(k); k == "" {
			continue
		}
		out = append(out, Specification{Key: k, Value: strings.TrimSpace(v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Get returns the value stored under key.
func (s Specifications) Get(key string) (string, bool) {
	for _, spec := range s {
		if spec.Key == key {
			return spec.Value, true
		}
	}
	return "", false
}

func (s Specifications) Map() map[string]string {
	out := make(map[string]string, len(s))
	for _, spec := range s {
		out[spec.Key] = spec.Value
	}
	return out
}

func (s *Specifications) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*s = Specifications{}
		return nil
	case bsontype.Array:
		var values []Specification
		if err := bson.UnmarshalValue(t, data, &values); err != nil {
			return err
		}
		*s = Specifications(values)
		return nil
	case bsontype.EmbeddedDocument:
		var raw bson.M
		if err := bson.UnmarshalValue(t, data, &raw); err != nil {
			return err
		}
		*s = specificationsFromAny(raw)
		return nil
	case bsontype.String:
		var value string
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*s = parseSpecificationsText(value)
		return nil
	default:
		return fmt.Errorf("cannot decode %s into Specifications", t)
	}
}

func (s Specifications) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue([]Specification(s.orEmpty()))
}

func (s *Specifications) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = Specifications{}
	case string:
		*s = parseSpecificationsText(v)
	case []byte:
		*s = parseSpecificationsText(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Specifications", src)
	}
	return nil
}

func (s Specifications) Value() (driver.Value, error) {
	data, err := json.Marshal([]Specification(s.orEmpty()))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (s Specifications) MarshalJSON() ([]byte, error) {
	return json.Marshal([]Specification(s.orEmpty()))
}

// UnmarshalJSON accepts either the pair list or a plain object.
func (s *Specifications) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = Specifications{}
		return nil
	}
	if trimmed[0] == '{' {
		var raw map[string]any
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		*s = specificationsFromAny(raw)
		return nil
	}
	var values []Specification
	if err := json.Unmarshal(trimmed, &values); err != nil {
		return err
	}
	*s = Specifications(values)
	return nil
}

func (s Specifications) orEmpty() Specifications {
	if s == nil {
		return Specifications{}
	}
	return s
}

func parseSpecificationsText(value string) Specifications {
	var out Specifications
	if err := out.UnmarshalJSON([]byte(value)); err != nil {
		return Specifications{}
	}
	return out
}

func specificationsFromAny(raw map[string]any) Specifications {
	m := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			m[k] = ""
			continue
		}
		m[k] = fmt.Sprint(v)
	}
	return SpecificationsFromMap(m)
}
