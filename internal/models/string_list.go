package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// StringList is an ordered list of strings (image references, box contents). It is
// decoded once at the store boundary whether the stored value is an array, a single
// string, or a legacy JSON-encoded blob such as `["a","b"]`.
type StringList []string

// UnmarshalBSONValue accepts array and string BSON types, allowing legacy
// documents to be decoded without failing the entire request.
func (s *StringList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*s = StringList{}
		return nil
	case bsontype.Array:
		var values []string
		if err := bson.UnmarshalValue(t, data, &values); err != nil {
			return err
		}
		*s = cleanStrings(values)
		return nil
	case bsontype.String:
		var value string
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*s = parseStringListText(value)
		return nil
	default:
		return fmt.Errorf("cannot decode %s into StringList", t)
	}
}

// MarshalBSONValue always stores the list as an array, keeping new writes
// consistent even when legacy documents used a string value.
func (s StringList) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue([]string(s.orEmpty()))
}

// Scan reads the JSON text column used by the SQL store.
func (s *StringList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = StringList{}
	case string:
		*s = parseStringListText(v)
	case []byte:
		*s = parseStringListText(string(v))
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	return nil
}

func (s StringList) Value() (driver.Value, error) {
	data, err := json.Marshal([]string(s.orEmpty()))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (s StringList) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(s.orEmpty()))
}

// UnmarshalJSON accepts an array, a single string or null.
func (s *StringList) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err == nil {
		*s = cleanStrings(values)
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("cannot decode %s into StringList", data)
	}
	*s = parseStringListText(value)
	return nil
}

func (s StringList) orEmpty() StringList {
	if s == nil {
		return StringList{}
	}
	return s
}

// parseStringListText never fails: a JSON array is decoded, anything else that is
// not blank becomes a one-element list.
func parseStringListText(value string) StringList {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return StringList{}
	}
	if strings.HasPrefix(trimmed, "[") {
		var values []string
		if err := json.Unmarshal([]byte(trimmed), &values); err == nil {
			return cleanStrings(values)
		}
		return StringList{}
	}
	return StringList{trimmed}
}

func cleanStrings(values []string) StringList {
	out := make(StringList, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
