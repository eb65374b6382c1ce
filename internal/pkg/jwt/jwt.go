package jwt

import (
	"time"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeSSE    = "sse"

	sseTokenLifetime = 5 * time.Minute
)

// AccessClaims are the identity claims carried by an access token.
type AccessClaims struct {
	UserID     string
	Email      string
	EmployeeID *string
	CompanyID  *string
	Role       user.Role
}

// SSESubject identifies the caller of a status stream.
type SSESubject struct {
	UserID     string
	EmployeeID string
}

type Service interface {
	GenerateAccessToken(claims AccessClaims) (token string, expiresAt int64, err error)
	GenerateSSEToken(subject SSESubject) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (SSESubject, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
	now                       func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                       time.Now,
	}
}

// GenerateAccessToken issues an access token. Production tokens come from the
// login service sharing JWT_SECRET_KEY; within this module only tests call it.
func (j *JWTService) GenerateAccessToken(c AccessClaims) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = j.now().Add(expDuration).Unix()

	claims := map[string]interface{}{
		"user_id":     c.UserID,
		"email":       c.Email,
		"employee_id": valueOrNil(c.EmployeeID),
		"company_id":  valueOrNil(c.CompanyID),
		"role":        string(c.Role),
		"type":        TokenTypeAccess,
		"exp":         expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

func valueOrNil(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}

// GenerateSSEToken generates a short-lived token for the status stream
func (j *JWTService) GenerateSSEToken(subject SSESubject) (token string, expiresIn int, err error) {
	expiresAt := j.now().Add(sseTokenLifetime).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":     subject.UserID,
		"employee_id": subject.EmployeeID,
		"type":        TokenTypeSSE,
		"exp":         expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(sseTokenLifetime.Seconds()), nil
}

// ValidateSSEToken validates an SSE token and returns who it was issued to
func (j *JWTService) ValidateSSEToken(tokenString string) (SSESubject, error) {
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		return SSESubject{}, err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != TokenTypeSSE {
		return SSESubject{}, jwt.ErrInvalidJWT()
	}

	var subject SSESubject
	for claim, dst := range map[string]*string{"user_id": &subject.UserID, "employee_id": &subject.EmployeeID} {
		v, ok := token.Get(claim)
		if !ok {
			return SSESubject{}, jwt.ErrInvalidJWT()
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return SSESubject{}, jwt.ErrInvalidJWT()
		}
		*dst = s
	}

	return subject, nil
}
