package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type product struct {
	Title string `bson:"title" json:"title"`
	Price int    `bson:"price" json:"price"`
}

func TestBsonCodec(t *testing.T) {
	c := NewBsonCodec[product]()
	assert.Equal(t, "bson", c.Tag())

	data, err := c.Encode(product{Title: "чайник", Price: 1000})
	require.NoError(t, err)

	p, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, product{Title: "чайник", Price: 1000}, p)
}

func TestJsonCodec(t *testing.T) {
	c := NewJsonCodec[product]()
	assert.Equal(t, "json", c.Tag())

	data, err := c.Encode(product{Title: "сковорода", Price: 5000})
	require.NoError(t, err)

	p, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 5000, p.Price)
}

func TestDocumentNeverAliases(t *testing.T) {
	// arrange
	rec := map[string]any{"name": "rwrwrw", "tags": []any{"a", "b"}}

	// act
	doc, err := Document(rec)
	require.NoError(t, err)
	rec["name"] = "mutated"

	m, err := AsMap(doc)
	require.NoError(t, err)

	// assert: the document kept the value from encode time
	assert.Equal(t, "rwrwrw", m["name"])
}

func TestDocumentRejectsUnserializable(t *testing.T) {
	_, err := Document(map[string]any{"f": func() {}})
	assert.Error(t, err)
}
