// Package codegen produces fixed-length random short codes.
package codegen

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

const (
	Alphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	DefaultLength = 5
)

// Bytes at or above this value are rejected so every symbol stays equally likely.
const acceptBelow = 256 - 256%len(Alphabet)

type Generator struct {
	length int
	rnd    io.Reader
}

func New(length int) *Generator {
	return NewWithReader(length, rand.Reader)
}

func NewWithReader(length int, r io.Reader) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length, rnd: r}
}

func (g *Generator) Length() int {
	return g.length
}

// Generate returns a new code. Calls are independent of each other.
func (g *Generator) Generate() (string, error) {
	code := make([]byte, 0, g.length)
	buf := make([]byte, g.length*2)

	for len(code) < g.length {
		if _, err := io.ReadFull(g.rnd, buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= acceptBelow {
				continue
			}
			code = append(code, Alphabet[int(b)%len(Alphabet)])
			if len(code) == g.length {
				break
			}
		}
	}

	return string(code), nil
}

func Valid(code string, length int) bool {
	return len(code) == length && ValidSymbols(code)
}

// ValidSymbols reports whether code is non-empty and drawn from Alphabet,
// whatever its length.
func ValidSymbols(code string) bool {
	if code == "" {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}
