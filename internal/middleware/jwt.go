package middleware

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"locamark/internal/i18n"
)

const (
	tokenTTL     = 72 * time.Hour
	tokenSubject = "locamark"
)

// ErrAuthDisabled is returned by token issuance when no passphrase is configured.
var ErrAuthDisabled = errors.New("authentication is disabled")

// Auth issues and checks the bearer tokens guarding the API. With no
// passphrase hash configured it lets every request through.
type Auth struct {
	secret         []byte
	passphraseHash []byte
}

// NewAuth builds the guard. An empty secret is replaced with a random one, so
// tokens do not survive a restart.
func NewAuth(secret, passphraseHash string) *Auth {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("generate JWT secret: %v", err))
		}
	}
	return &Auth{secret: key, passphraseHash: []byte(passphraseHash)}
}

// Enabled reports whether requests need a token.
func (a *Auth) Enabled() bool {
	return len(a.passphraseHash) > 0
}

// HashPassphrase returns the bcrypt hash to put in AUTH_PASSPHRASE_HASH.
func HashPassphrase(passphrase string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// IssueToken checks the passphrase and returns a signed token.
func (a *Auth) IssueToken(passphrase string) (string, error) {
	if !a.Enabled() {
		return "", ErrAuthDisabled
	}
	if err := bcrypt.CompareHashAndPassword(a.passphraseHash, []byte(passphrase)); err != nil {
		return "", err
	}
	return a.GenerateToken()
}

func (a *Auth) GenerateToken() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   tokenSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *Auth) ValidateToken(tokenStr string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithSubject(tokenSubject))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// RequireAuth ensures a valid JWT is present, either as a bearer header or,
// for websocket upgrades, as the token query parameter.
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() {
			c.Next()
			return
		}

		tokenString := ""
		if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		} else {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": i18n.T(LanguageFrom(c), i18n.MsgUnauthorized)})
			return
		}

		if _, err := a.ValidateToken(tokenString); err != nil {
			logrus.WithError(err).WithField("path", c.FullPath()).Warn("Rejected request with invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": i18n.T(LanguageFrom(c), i18n.MsgUnauthorized)})
			return
		}

		c.Next()
	}
}
