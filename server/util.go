package main

import (
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// GenerateUUID returns a random (version 4) UUID string
func GenerateUUID() string {
	return uuid.NewString()
}

// IsRoomID reports whether s looks like a room ID
func IsRoomID(s string) bool {
	u, err := uuid.Parse(s)
	return err == nil && u.String() == s
}

// NewSeed returns a fresh round seed
func NewSeed() uint64 {
	return rand.Uint64()
}

// CleanName trims a display name and caps it at max runes. Empty names
// become fallback.
func CleanName(name, fallback string, max int) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if utf8.RuneCountInString(name) > max {
		name = string([]rune(name)[:max])
	}
	return name
}
