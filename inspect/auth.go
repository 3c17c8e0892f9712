package inspect

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/kbukum/injector/errors"
)

// SubjectKey is the gin context key holding the authenticated subject.
const SubjectKey = "inspect.subject"

// authenticate returns middleware enforcing cfg. Paths in open bypass it.
func authenticate(cfg AuthConfig, open ...string) gin.HandlerFunc {
	var check func(*gin.Context) (string, error)
	switch cfg.Mode {
	case AuthBearer:
		check = bearerCheck(cfg)
	case AuthBasic:
		check = basicCheck(cfg)
	default:
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		for _, p := range open {
			if c.Request.URL.Path == p {
				c.Next()
				return
			}
		}
		subject, err := check(c)
		if err != nil {
			if cfg.Mode == AuthBasic {
				c.Header("WWW-Authenticate", `Basic realm="inspect"`)
			}
			appErr := errors.Unauthorized(err.Error())
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		c.Set(SubjectKey, subject)
		c.Next()
	}
}

func bearerCheck(cfg AuthConfig) func(*gin.Context) (string, error) {
	key := []byte(cfg.JWTSecret)
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(cfg.Issuer))
	}

	return func(c *gin.Context) (string, error) {
		header := c.GetHeader("Authorization")
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
			return "", fmt.Errorf("bearer token required")
		}
		claims := &gojwt.RegisteredClaims{}
		_, err := gojwt.ParseWithClaims(raw, claims, func(*gojwt.Token) (interface{}, error) {
			return key, nil
		}, opts...)
		if err != nil {
			return "", fmt.Errorf("invalid token")
		}
		return claims.Subject, nil
	}
}

func basicCheck(cfg AuthConfig) func(*gin.Context) (string, error) {
	wantUser := []byte(cfg.Username)
	hash := []byte(cfg.PasswordHash)

	return func(c *gin.Context) (string, error) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok {
			return "", fmt.Errorf("basic credentials required")
		}
		userOK := subtle.ConstantTimeCompare([]byte(user), wantUser) == 1
		// always run bcrypt so timing does not reveal the username
		passErr := bcrypt.CompareHashAndPassword(hash, []byte(pass))
		if !userOK || passErr != nil {
			return "", fmt.Errorf("invalid credentials")
		}
		return user, nil
	}
}

// IssueToken signs an HS256 token for subject that bearer mode accepts.
func IssueToken(cfg AuthConfig, subject string, ttl time.Duration) (string, error) {
	if cfg.JWTSecret == "" {
		return "", errors.Validation("jwt secret is required to issue tokens")
	}
	now := time.Now()
	claims := gojwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    cfg.Issuer,
		IssuedAt:  gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// HashPassword returns the bcrypt hash to put in AuthConfig.PasswordHash.
func HashPassword(password string) (string, error) {
	if len(password) > 72 {
		return "", errors.Validation("password exceeds bcrypt's 72 byte limit")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

