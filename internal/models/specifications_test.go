package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestSpecificationsDecodeLegacyForms(t *testing.T) {
	data, err := bson.Marshal(bson.M{
		"blob":   `{"Material":"Felpa","Altura":"1m"}`,
		"object": bson.M{"Peso": 2, "Color": "Azul"},
		"array":  []bson.M{{"key": "A", "value": "1"}},
	})
	require.NoError(t, err)

	var doc struct {
		Blob    Specifications `bson:"blob"`
		Object  Specifications `bson:"object"`
		Array   Specifications `bson:"array"`
		Missing Specifications `bson:"missing"`
	}
	require.NoError(t, bson.Unmarshal(data, &doc))

	assert.Equal(t, Specifications{{Key: "Altura", Value: "1m"}, {Key: "Material", Value: "Felpa"}}, doc.Blob)
	assert.Equal(t, Specifications{{Key: "Color", Value: "Azul"}, {Key: "Peso", Value: "2"}}, doc.Object)
	assert.Equal(t, Specifications{{Key: "A", Value: "1"}}, doc.Array)
	assert.Empty(t, doc.Missing)
}

func TestSpecificationsJSONAcceptsObjectAndList(t *testing.T) {
	var fromObject Specifications
	require.NoError(t, json.Unmarshal([]byte(`{"b":"2","a":"1"}`), &fromObject))
	assert.Equal(t, Specifications{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}, fromObject)

	var fromList Specifications
	require.NoError(t, json.Unmarshal([]byte(`[{"key":"z","value":"9"}]`), &fromList))
	v, ok := fromList.Get("z")
	assert.True(t, ok)
	assert.Equal(t, "9", v)
}

func TestSpecificationsScanMalformed(t *testing.T) {
	var s Specifications
	require.NoError(t, s.Scan("{broken"))
	assert.Equal(t, Specifications{}, s)

	require.NoError(t, s.Scan(`{"x":"y"}`))
	assert.Equal(t, map[string]string{"x": "y"}, s.Map())
}
