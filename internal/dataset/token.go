package dataset

import (
	"encoding/binary"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Token is a content fingerprint of a table snapshot.
type Token uint64

func (t Token) String() string {
	return strconv.FormatUint(uint64(t), 16)
}

// Derive mixes parts into the token so a filtered snapshot never collides with its parent.
func (t Token) Derive(parts ...string) Token {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(t))
	_, _ = d.Write(buf[:])
	for _, p := range parts {
		_, _ = d.WriteString(p)
		_, _ = d.Write([]byte{0})
	}
	return Token(d.Sum64())
}

func combineTokens(sums []uint64) Token {
	d := xxhash.New()
	var buf [8]byte
	for _, s := range sums {
		binary.LittleEndian.PutUint64(buf[:], s)
		_, _ = d.Write(buf[:])
	}
	return Token(d.Sum64())
}
