package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const maxPassphraseLen = 64

var ErrInvalidToken = errors.New("invalid room token")

// RoomClaims authorize one seat in one room
type RoomClaims struct {
	Seat int `json:"seat"`
	jwt.RegisteredClaims
}

// Auth issues room tokens and checks passphrases
type Auth struct {
	secret []byte
	ttl    time.Duration
	cost   int
}

// NewAuth creates an Auth. The signing secret comes from cfg, then the
// database, then a fresh random one persisted for the next start.
func NewAuth(cfg Config, db *DB) *Auth {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = loadOrCreateSecret(db)
	}
	return &Auth{secret: secret, ttl: cfg.TokenTTL, cost: cost}
}

func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting("jwt_secret"); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("jwt_secret", hex.EncodeToString(secret)); err != nil {
			log.Warn().Err(err).Msg("could not persist JWT secret")
		}
	}
	return secret
}

// HashPassphrase returns the bcrypt hash of p, or nil for an open room
func (a *Auth) HashPassphrase(p string) ([]byte, error) {
	if p == "" {
		return nil, nil
	}
	if len(p) > maxPassphraseLen {
		return nil, fmt.Errorf("passphrase longer than %d bytes", maxPassphraseLen)
	}
	return bcrypt.GenerateFromPassword([]byte(p), a.cost)
}

// CheckPassphrase matches p against a room's hash. Open rooms accept anything.
func (a *Auth) CheckPassphrase(hash []byte, p string) error {
	if hash == nil {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(p)); err != nil {
		return ErrBadPassphrase
	}
	return nil
}

// IssueToken signs a token for one seat of a room
func (a *Auth) IssueToken(code string, seat int) (string, error) {
	now := time.Now()
	claims := RoomClaims{
		Seat: seat,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   code,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ValidateToken checks a token and that it was issued for code
func (a *Auth) ValidateToken(tokenStr, code string) (*RoomClaims, error) {
	claims := &RoomClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithSubject(code))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
