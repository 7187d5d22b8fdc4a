// Package codec serializes records on their way into and out of the
// engine. Values cross the engine boundary as encoded documents, which
// gives structured-clone semantics: the engine never aliases caller
// memory.
package codec

type (
	Encode[T any] func(value T) ([]byte, error)
	Decode[T any] func(data []byte) (T, error)
)

type Codec[T any] struct {
	encode Encode[T]
	decode Decode[T]
	tag    string
}

func (c *Codec[T]) Encode(value T) ([]byte, error) {
	return c.encode(value)
}

func (c *Codec[T]) Decode(data []byte) (T, error) {
	return c.decode(data)
}

// Tag is the struct tag key record fields are named by.
func (c *Codec[T]) Tag() string {
	return c.tag
}
