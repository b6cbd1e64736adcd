// Package codec provides application-payload serialization for code
// built on top of a wsconn session. It is deliberately kept out of
// pkg/wsconn itself: the session core only ever moves opaque text or
// binary frames, and never needs to know how a caller chooses to
// encode the values carried inside them.
//
// Adapted from golivekit's pkg/protocol, trimmed to the two
// general-purpose codecs (JSON and MessagePack); the Phoenix wire
// format and its codec registry were LiveView-channel specific and had
// no equivalent here.
package codec

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec serializes and deserializes application payloads of type T.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
	Name() string
}

// JSON returns a Codec backed by encoding/json.
func JSON[T any]() Codec[T] {
	return jsonCodec[T]{}
}

type jsonCodec[T any] struct{}

func (jsonCodec[T]) Encode(v T) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec[T]) Decode(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

func (jsonCodec[T]) Name() string { return "json" }

// MsgPack returns a Codec backed by github.com/vmihailenco/msgpack/v5.
func MsgPack[T any]() Codec[T] {
	return msgpackCodec[T]{}
}

type msgpackCodec[T any] struct{}

func (msgpackCodec[T]) Encode(v T) ([]byte, error) { return msgpack.Marshal(v) }

func (msgpackCodec[T]) Decode(data []byte) (T, error) {
	var v T
	err := msgpack.Unmarshal(data, &v)
	return v, err
}

func (msgpackCodec[T]) Name() string { return "msgpack" }
