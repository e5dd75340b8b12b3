package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccountID identifies a persisted account. Assigned by the Store.
type AccountID int32

// NewAccount carries credentials submitted by a client for registration or
// login. Password is plaintext and must never be persisted.
type NewAccount struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=1024"`
}

// Account is the persisted form. PasswordHash is always an encoded
// Argon2 hash.
type Account struct {
	ID           AccountID
	Email        string
	PasswordHash string
}

// AddAccountParams is the Store input for inserting an account.
type AddAccountParams struct {
	Email        string
	PasswordHash string
}

// Claims is the signed token payload.
type Claims struct {
	AccountID int32 `json:"account_id"`
	jwt.RegisteredClaims
}

// Session is the verified view of Claims handed to protected handlers.
type Session struct {
	AccountID AccountID `json:"account_id"`
	NotBefore time.Time `json:"nbf"`
	ExpiresAt time.Time `json:"exp"`
}
