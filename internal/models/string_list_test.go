package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestStringListDecodesLegacyBlob(t *testing.T) {
	data, err := bson.Marshal(bson.M{"images": `["/uploads/a.webp", " ", "/uploads/b.webp"]`})
	require.NoError(t, err)

	var doc struct {
		Images StringList `bson:"images"`
	}
	require.NoError(t, bson.Unmarshal(data, &doc))
	assert.Equal(t, StringList{"/uploads/a.webp", "/uploads/b.webp"}, doc.Images)
}

func TestStringListDecodesArrayAndSingleString(t *testing.T) {
	data, err := bson.Marshal(bson.M{"a": []string{"x", "y"}, "b": "single"})
	require.NoError(t, err)

	var doc struct {
		A StringList `bson:"a"`
		B StringList `bson:"b"`
		C StringList `bson:"c"`
	}
	require.NoError(t, bson.Unmarshal(data, &doc))
	assert.Equal(t, StringList{"x", "y"}, doc.A)
	assert.Equal(t, StringList{"single"}, doc.B)
	assert.Empty(t, doc.C)
}

func TestStringListAlwaysWritesArray(t *testing.T) {
	data, err := bson.Marshal(struct {
		Images StringList `bson:"images"`
	}{})
	require.NoError(t, err)

	var raw bson.Raw = data
	assert.Equal(t, bson.TypeArray, raw.Lookup("images").Type)
}

func TestStringListScan(t *testing.T) {
	var s StringList
	require.NoError(t, s.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringList{"a", "b"}, s)

	require.NoError(t, s.Scan(nil))
	assert.Equal(t, StringList{}, s)

	require.NoError(t, s.Scan("[not json"))
	assert.Equal(t, StringList{}, s)

	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestStringListJSONNeverNull(t *testing.T) {
	body, err := json.Marshal(struct {
		Images StringList `json:"images"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"images":[]}`, string(body))
}

func TestStringListUnmarshalJSON(t *testing.T) {
	var doc struct {
		A StringList `json:"a"`
		B StringList `json:"b"`
		C StringList `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":["x"," ","y"],"b":"[\"z\"]","c":null}`), &doc))
	assert.Equal(t, StringList{"x", "y"}, doc.A)
	assert.Equal(t, StringList{"z"}, doc.B)
	assert.Empty(t, doc.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a":42}`), &doc))
}
