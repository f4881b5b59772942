package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload is the member data written into a minted token.
type AccessTokenPayload struct {
	MemberID   uuid.UUID
	University string
	JTI        string
}

// AccessTokenClaims is the token members present. Tokens from older identity
// service builds carry the member only in sub.
type AccessTokenClaims struct {
	MemberID   uuid.UUID `json:"member_id"`
	University string    `json:"university,omitempty"`
	jwt.RegisteredClaims
}

func (c *AccessTokenClaims) resolve() (*AccessTokenClaims, error) {
	if c.MemberID != uuid.Nil {
		return c, nil
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil || id == uuid.Nil {
		return nil, ErrNoMember
	}
	c.MemberID = id
	return c, nil
}
