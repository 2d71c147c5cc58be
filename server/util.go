package main

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const roomCodeDigits = 8

var roomCodeSpace = big.NewInt(100_000_000)

// GenerateRoomCode returns 8 random decimal digits
func GenerateRoomCode() string {
	n, err := rand.Int(rand.Reader, roomCodeSpace)
	if err != nil {
		panic("failed to read random room code: " + err.Error())
	}
	return fmt.Sprintf("%0*d", roomCodeDigits, n.Int64())
}

// ValidRoomCode reports whether s looks like a room code
func ValidRoomCode(s string) bool {
	if len(s) != roomCodeDigits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
