// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the cookie carrying the player's session token.
const CookieName = "auth_token"

var ErrNoSession = errors.New("no session token")

var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenTTL is the lifetime of issued tokens; zero issues tokens without exp.
	tokenTTL time.Duration
)

// Init generates a fresh ed25519 key pair. Tokens issued before a restart stop verifying.
func Init() {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ed25519 key pair: %v", err))
	}
	publicKey, privateKey = pub, priv
}

// SetTokenTTL sets the lifetime of tokens created from now on.
func SetTokenTTL(d time.Duration) {
	tokenTTL = d
}

// CreateJWT signs a token whose subject is userID.
func CreateJWT(userID string) (string, error) {
	if privateKey == nil {
		return "", errors.New("auth keys are not initialized")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  userID,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if tokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(tokenTTL))
	}
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(privateKey)
}

// AuthenticateJWT verifies tokenString and returns its subject.
func AuthenticateJWT(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}))
	if err != nil {
		return "", fmt.Errorf("jwt parse error: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("missing sub in jwt")
	}
	return claims.Subject, nil
}

// PlayerFromRequest resolves the player id from the session cookie.
func PlayerFromRequest(r *http.Request) (uuid.UUID, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return uuid.Nil, ErrNoSession
	}
	sub, err := AuthenticateJWT(c.Value)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id in token: %w", err)
	}
	return id, nil
}

// SetSessionCookie hands token to the browser as an HttpOnly cookie.
func SetSessionCookie(w http.ResponseWriter, token string) {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
	if tokenTTL > 0 {
		c.MaxAge = int(tokenTTL.Seconds())
	}
	http.SetCookie(w, c)
}
