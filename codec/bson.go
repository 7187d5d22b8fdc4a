package codec

import "gopkg.in/mgo.v2/bson"

func BsonEncode[T any](value T) ([]byte, error) {
	return bson.Marshal(value)
}

func BsonDecode[T any](data []byte) (T, error) {
	var v T
	err := bson.Unmarshal(data, &v)
	return v, err
}

func NewBsonCodec[T any]() Codec[T] {
	return Codec[T]{encode: BsonEncode[T], decode: BsonDecode[T], tag: "bson"}
}

// Document encodes a record into the engine's document form. The
// engine never aliases caller memory: a record is serialized on the
// way in and decoded fresh on the way out, which is the structured
// clone the native engines perform. Values that cannot be encoded
// (functions, channels, cyclic data) fail here rather than inside the
// engine.
func Document(value any) ([]byte, error) {
	return bson.Marshal(value)
}

// AsMap decodes an engine document into a generic record.
func AsMap(data []byte) (bson.M, error) {
	var out bson.M
	if err := bson.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
