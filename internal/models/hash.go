package models

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HashSize is the byte length of seeds, commitments and snapshot values.
const HashSize = 32

// Hash is a 32-byte value rendered as 0x-prefixed hex.
type Hash [HashSize]byte

// IsZero reports whether every byte of h is zero.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash decodes a 64 character hex string, with or without a 0x prefix.
func ParseHash(s string) (Hash, error) {
	var h Hash
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != HashSize*2 {
		return h, &ValidationError{Msg: fmt.Sprintf("hash must be %d hex characters, got %d", HashSize*2, len(s))}
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, &ValidationError{Msg: fmt.Sprintf("invalid hex: %v", err)}
	}
	return h, nil
}

// HashPtr returns a pointer to a copy of h.
func HashPtr(h Hash) *Hash {
	return &h
}
