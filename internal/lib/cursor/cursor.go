// Package cursor implements opaque keyset pagination cursors over the
// (created_at, id) pair.
//
// A cursor is the binary form of the key followed by a truncated
// HMAC-SHA256 tag, base64url encoded. Decoding rejects anything that was not
// produced by a Codec with the same secret.
package cursor

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const (
	DefaultFirst = 12
	MaxFirst     = 100

	tagSize = 8
)

var ErrInvalidCursor = errors.New("invalid cursor")

var encoding = base64.RawURLEncoding.Strict()

// Key is the position of a row in a (created_at DESC, id DESC) ordering.
type Key struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

func (c *Codec) Encode(createdAt time.Time, id uuid.UUID) string {
	var buf bytes.Buffer

	// UTC times always have a whole-minute offset, so MarshalBinary cannot fail.
	timeBytes, _ := createdAt.UTC().MarshalBinary()

	lenBuf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(lenBuf, uint64(len(timeBytes)))
	buf.Write(lenBuf[:n])
	buf.Write(timeBytes)
	buf.Write(id[:])

	payload := buf.Bytes()
	return encoding.EncodeToString(append(payload, c.tag(payload)...))
}

func (c *Codec) EncodeKey(k Key) string {
	return c.Encode(k.CreatedAt, k.ID)
}

func (c *Codec) Decode(s string) (Key, error) {
	raw, err := encoding.DecodeString(s)
	if err != nil || len(raw) <= tagSize {
		return Key{}, ErrInvalidCursor
	}

	payload, tag := raw[:len(raw)-tagSize], raw[len(raw)-tagSize:]
	if !hmac.Equal(tag, c.tag(payload)) {
		return Key{}, ErrInvalidCursor
	}

	timeLen, n := binary.Uvarint(payload)
	if n <= 0 || uint64(len(payload)-n) != timeLen+uint64(len(uuid.UUID{})) {
		return Key{}, ErrInvalidCursor
	}
	payload = payload[n:]

	var k Key
	if err := k.CreatedAt.UnmarshalBinary(payload[:timeLen]); err != nil {
		return Key{}, ErrInvalidCursor
	}

	id, err := uuid.FromBytes(payload[timeLen:])
	if err != nil {
		return Key{}, ErrInvalidCursor
	}
	k.ID = id

	return k, nil
}

// DecodeAfter decodes an optional "after" argument. An empty string means the
// first page.
func (c *Codec) DecodeAfter(after string) (*Key, error) {
	if after == "" {
		return nil, nil
	}

	k, err := c.Decode(after)
	if err != nil {
		return nil, err
	}

	return &k, nil
}

func (c *Codec) tag(payload []byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(payload)
	return mac.Sum(nil)[:tagSize]
}

// Predicate selects rows strictly after k in descending key order:
// created_at < t OR (created_at = t AND id < id).
func (k Key) Predicate(createdAtColumn, idColumn string) sq.Sqlizer {
	return sq.Or{
		sq.Lt{createdAtColumn: k.CreatedAt},
		sq.And{
			sq.Eq{createdAtColumn: k.CreatedAt},
			sq.Lt{idColumn: k.ID},
		},
	}
}

// OrderBy is the ordering matching Predicate.
func OrderBy(createdAtColumn, idColumn string) []string {
	return []string{createdAtColumn + " DESC", idColumn + " DESC"}
}

// Normalize clamps a requested page size to [1, MaxFirst], defaulting to DefaultFirst.
func Normalize(first int) int {
	switch {
	case first <= 0:
		return DefaultFirst
	case first > MaxFirst:
		return MaxFirst
	}
	return first
}

// Limit is the number of rows to fetch for a page of size first. The extra
// row only tells whether another page exists.
func Limit(first int) uint64 {
	return uint64(Normalize(first)) + 1
}
