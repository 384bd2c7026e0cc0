package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-matchups/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var ErrNoClaims = errors.New("user claims not found in context")

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrNoClaims
	}
	raw, ok := claims[jwtClaimUserID].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing or invalid '%s' claim in token", jwtClaimUserID)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user ID in '%s' claim: %w", jwtClaimUserID, err)
	}
	return id, nil
}

func GetUserRoleFromContext(ctx context.Context) (models.UserRole, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return "", ErrNoClaims
	}
	raw, ok := claims[jwtClaimRole].(string)
	if !ok {
		return "", fmt.Errorf("missing or invalid '%s' claim in token", jwtClaimRole)
	}
	switch role := models.UserRole(raw); role {
	case models.RoleAdmin, models.RoleUser:
		return role, nil
	default:
		return "", fmt.Errorf("invalid role value in claim: %q", raw)
	}
}
