package server

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/bcrypt"

	"github.com/wardle/hiservice/hiservice"
)

var (
	// ErrInvalidToken means that there was an invalid or missing authorization token
	ErrInvalidToken = errors.New("invalid authorization token")
	// ErrInvalidCredentials means that a login attempt failed
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCannotIssueTokens means that no private key is available for signing tokens
	ErrCannotIssueTokens = errors.New("no private key specified for signing tokens")
)

// DefaultTokenDuration is how long an issued token remains valid
var DefaultTokenDuration = 5 * time.Minute

// Auth verifies RS256 bearer tokens and, if it has a private key, issues them to service accounts.
// The subject of a token is used as the HI Service user identifier for calls made with it.
type Auth struct {
	privateKey    *rsa.PrivateKey // may be nil if only verifying tokens
	publicKey     *rsa.PublicKey
	TokenDuration time.Duration

	mu       sync.RWMutex
	accounts map[string]string // username to bcrypt hash
}

// NewAuthenticator creates an authenticator that verifies tokens signed by a third party
func NewAuthenticator(rsaPublicKey string) (*Auth, error) {
	key, err := os.ReadFile(rsaPublicKey)
	if err != nil {
		return nil, fmt.Errorf("error reading jwt public key: %w", err)
	}
	parsedKey, err := jwt.ParseRSAPublicKeyFromPEM(key)
	if err != nil {
		return nil, fmt.Errorf("error parsing jwt public key: %w", err)
	}
	return newAuth(nil, parsedKey), nil
}

// NewAuthenticationServer creates a new authentication server that can issue JWT tokens
func NewAuthenticationServer(rsaPrivateKey string) (*Auth, error) {
	key, err := os.ReadFile(rsaPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("error reading jwt private key: %w", err)
	}
	parsedKey, err := jwt.ParseRSAPrivateKeyFromPEM(key)
	if err != nil {
		return nil, fmt.Errorf("error parsing jwt private key: %w", err)
	}
	return newAuth(parsedKey, &parsedKey.PublicKey), nil
}

// NewAuthenticationServerWithTemporaryKey creates a new authentication server using an ephemeral private/public key pair
func NewAuthenticationServerWithTemporaryKey() (*Auth, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	return newAuth(key, &key.PublicKey), nil
}

func newAuth(private *rsa.PrivateKey, public *rsa.PublicKey) *Auth {
	return &Auth{
		privateKey:    private,
		publicKey:     public,
		TokenDuration: DefaultTokenDuration,
		accounts:      make(map[string]string),
	}
}

// RegisterServiceAccount registers an account that may log in to obtain a token.
// The hash is a bcrypt hash of the account's secret, as generated by GenerateCredentials.
func (auth *Auth) RegisterServiceAccount(username string, hash string) {
	auth.mu.Lock()
	defer auth.mu.Unlock()
	if _, exists := auth.accounts[username]; exists {
		panic("service account already registered: " + username)
	}
	auth.accounts[username] = hash
	log.Printf("auth: registered service account '%s'", username)
}

// CanIssueTokens returns whether this can issue tokens, rather than only verify them
func (auth *Auth) CanIssueTokens() bool {
	return auth.privateKey != nil
}

// Login authenticates a service account and returns a signed token
func (auth *Auth) Login(username string, secret string) (string, error) {
	if auth.privateKey == nil {
		return "", ErrCannotIssueTokens
	}
	auth.mu.RLock()
	hash, found := auth.accounts[username]
	auth.mu.RUnlock()
	if !found {
		log.Printf("auth: failed login attempt: unknown account: '%s'", username)
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		log.Printf("auth: invalid credentials for '%s'", username)
		return "", ErrInvalidCredentials
	}
	ss, err := auth.generateToken(username, auth.TokenDuration)
	if err != nil {
		log.Printf("auth: failed to generate token: %s", err)
		return "", err
	}
	log.Printf("auth: generated authentication token for '%s': %v", username, auth.TokenDuration)
	return ss, nil
}

func (auth *Auth) generateToken(subject string, duration time.Duration) (string, error) {
	claims := &jwt.StandardClaims{
		ExpiresAt: time.Now().Add(duration).Unix(),
		IssuedAt:  time.Now().Unix(),
		Subject:   subject,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(auth.privateKey)
}

// parseToken verifies the token and returns its subject
func (auth *Auth) parseToken(token string) (string, error) {
	const bearerSchema = "Bearer "
	if strings.HasPrefix(token, bearerSchema) {
		token = token[len(bearerSchema):]
	}
	if token == "" {
		return "", ErrInvalidToken
	}
	jwtToken, err := jwt.ParseWithClaims(token, &jwt.StandardClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			log.Printf("auth: unexpected signing method: %v", t.Header["alg"])
			return nil, ErrInvalidToken
		}
		return auth.publicKey, nil
	})
	if err == nil && jwtToken.Valid {
		claims := jwtToken.Claims.(*jwt.StandardClaims)
		if claims.Subject == "" {
			return "", ErrInvalidToken
		}
		return claims.Subject, nil
	}
	log.Printf("auth: invalid token: %s", err)
	return "", ErrInvalidToken
}

var noAuthEndpoints = map[string]struct{}{
	"/health":   {},
	"/metrics":  {},
	"/v1/login": {},
}

// Middleware ensures that requests carry a valid bearer token, and makes calls on behalf
// of the token's subject.
func (auth *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, found := noAuthEndpoints[r.URL.Path]; found || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		subject, err := auth.parseToken(r.Header.Get("Authorization"))
		if err != nil {
			log.Printf("server: unauthenticated call to '%s': %s", r.URL.Path, err)
			writeError(w, http.StatusUnauthorized, &errorResponse{Error: "unauthenticated: " + err.Error()})
			return
		}
		next.ServeHTTP(w, r.WithContext(hiservice.WithUserID(r.Context(), subject)))
	})
}

// GenerateCredentials generates a random secret and its bcrypt hash, for registering a service account
func GenerateCredentials() (string, string, error) {
	p, err := password.Generate(64, 10, 0, false, true)
	if err != nil {
		return "", "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return p, string(hash), nil
}
