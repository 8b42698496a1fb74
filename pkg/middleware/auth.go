package middleware

import (
	"crypto/rsa"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"go-shop/pkg/errors"
)

const identityKey = "identity"

// Identity carries the verified claims of the identity-provider session token.
type Identity struct {
	ClerkID string // subject assigned by the identity provider
	Email   string
	Name    string
	Role    string
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == "admin"
}

// TokenVerifier validates identity-provider session tokens.
type TokenVerifier struct {
	secret    []byte
	publicKey *rsa.PublicKey
}

// NewTokenVerifier builds a verifier from an RS256 public key PEM or, when
// no PEM is given, an HS256 shared secret.
func NewTokenVerifier(publicKeyPEM, secret string) (*TokenVerifier, error) {
	v := &TokenVerifier{}
	if publicKeyPEM != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
		if err != nil {
			return nil, err
		}
		v.publicKey = key
		return v, nil
	}
	v.secret = []byte(secret)
	return v, nil
}

type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verify parses and validates a session token, returning its identity.
func (v *TokenVerifier) Verify(token string) (Identity, error) {
	var claims sessionClaims

	keyFunc := func(t *jwt.Token) (interface{}, error) {
		if v.publicKey != nil {
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return v.publicKey, nil
		}
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	}

	parsed, err := jwt.ParseWithClaims(token, &claims, keyFunc)
	if err != nil || !parsed.Valid {
		return Identity{}, errors.NewUnauthorized("invalid session token")
	}
	if claims.Subject == "" {
		return Identity{}, errors.NewUnauthorized("session token has no subject")
	}

	return Identity{
		ClerkID: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Role:    claims.Role,
	}, nil
}

// Auth requires a valid identity-provider session token on the request.
func Auth(verifier *TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abortWithError(c, errors.NewUnauthorized("missing bearer token"))
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireAdmin allows only identities carrying the admin role. It must be
// mounted after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok || !identity.IsAdmin() {
			abortWithError(c, errors.NewForbidden("admin access required"))
			return
		}
		c.Next()
	}
}

// GetIdentity returns the identity stored by Auth.
func GetIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}

func abortWithError(c *gin.Context, err error) {
	traceID := c.GetString(TraceIDKey)
	statusCode, jsonResponse := errors.ToJSON(err, traceID)
	c.Header(TraceIDHeader, traceID)
	c.Abort()
	c.Data(statusCode, "application/json", jsonResponse)
}
