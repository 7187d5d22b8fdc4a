package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyPathEquality(t *testing.T) {
	// string vs string by value
	assert.True(t, Path("email").Equal(Path("email")))
	assert.False(t, Path("email").Equal(Path("name")))

	// composite vs composite element-wise
	assert.True(t, Composite("a", "b").Equal(Composite("a", "b")))
	assert.False(t, Composite("a", "b").Equal(Composite("b", "a")))
	assert.False(t, Composite("a", "b").Equal(Composite("a")))

	// composite vs single never match, even with equal content
	assert.False(t, Composite("a").Equal(Path("a")))
	assert.False(t, Path("a").Equal(Composite("a")))

	// zero values
	assert.True(t, KeyPath{}.Equal(KeyPath{}))
	assert.False(t, KeyPath{}.Equal(Path("a")))
}

func TestParse(t *testing.T) {
	// arrange
	doc := []byte(`
stores:
  - name: contacts
    keyPath: id
    autoIncrement: true
    indexes:
      - name: by_email
        keyPath: email
        unique: true
      - name: by_name
        keyPath: [last, first]
`)

	// act
	s, err := Parse(doc)

	// assert
	require.NoError(t, err)
	st, ok := s.Store("contacts")
	require.True(t, ok)
	assert.True(t, st.KeyPath.Equal(Path("id")))
	assert.True(t, st.AutoIncrement)

	byEmail, ok := st.Index("by_email")
	require.True(t, ok)
	assert.True(t, byEmail.Unique)
	assert.True(t, byEmail.KeyPath.Equal(Path("email")))

	byName, ok := st.Index("by_name")
	require.True(t, ok)
	assert.True(t, byName.KeyPath.IsComposite())
	assert.True(t, byName.KeyPath.Equal(Composite("last", "first")))
}

func TestValidate(t *testing.T) {
	dup := Schema{Stores: []Store{{Name: "a"}, {Name: "a"}}}
	assert.Error(t, dup.Validate())

	noName := Schema{Stores: []Store{{Name: ""}}}
	assert.Error(t, noName.Validate())

	multiComposite := Schema{Stores: []Store{{
		Name: "s",
		Indexes: []Index{{
			Name:       "bad",
			KeyPath:    Composite("a", "b"),
			MultiEntry: true,
		}},
	}}}
	assert.Error(t, multiComposite.Validate())

	ok := Schema{Stores: []Store{{
		Name:    "s",
		KeyPath: Path("id"),
		Indexes: []Index{{Name: "i", KeyPath: Path("f")}},
	}}}
	assert.NoError(t, ok.Validate())
}
