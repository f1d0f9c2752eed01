package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	PurposeAccess  = "access"
	PurposeConfirm = "confirm-email"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UID     string   `json:"uid"`
	Roles   []string `json:"roles,omitempty"`
	Purpose string   `json:"purpose"`
	jwt.RegisteredClaims
}

func (c *Claims) HasRole(role string) bool { return slices.Contains(c.Roles, role) }

type JWTer struct {
	Secret     []byte
	Issuer     string
	TTL        time.Duration
	ConfirmTTL time.Duration
}

// Issue 访问令牌，携带角色名
func (j *JWTer) Issue(uid string, roles []string) (string, error) {
	return j.sign(uid, roles, PurposeAccess, j.TTL)
}

// IssueConfirm 邮箱确认令牌
func (j *JWTer) IssueConfirm(uid string) (string, error) {
	ttl := j.ConfirmTTL
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return j.sign(uid, nil, PurposeConfirm, ttl)
}

func (j *JWTer) sign(uid string, roles []string, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UID:     uid,
		Roles:   roles,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// Parse 只接受访问令牌
func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	return j.parse(tokenStr, PurposeAccess)
}

func (j *JWTer) ParseConfirm(tokenStr string) (*Claims, error) {
	return j.parse(tokenStr, PurposeConfirm)
}

func (j *JWTer) parse(tokenStr, purpose string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return j.Secret, nil
	}, jwt.WithIssuer(j.Issuer), jwt.WithLeeway(60*time.Second))

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid && c.Purpose == purpose {
		return c, nil
	}
	return nil, ErrInvalidToken
}
