package token

import "bankcore/internal/platform/middleware"

// MiddlewareValidator exposes the JWT service through the shape the auth
// middleware expects.
type MiddlewareValidator struct {
	jwt *JWTService
}

func NewMiddlewareValidator(jwt *JWTService) *MiddlewareValidator {
	return &MiddlewareValidator{jwt: jwt}
}

func (a *MiddlewareValidator) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	out := &middleware.JWTClaims{
		UserID: claims.UserID,
		JTI:    claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
