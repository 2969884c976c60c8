package services

import (
	"context"
	"crypto/subtle"

	"github.com/google/uuid"

	resp "tripmate/internal/models/response_models"
	"tripmate/pkg/utils"
)

type AuthServiceInterface interface {
	IssueToken(ctx context.Context, adminKey string) (*resp.TokenResponse, error)
}

type AuthService struct {
	jwt      *utils.JWTManager
	adminKey string
}

func NewAuthService(jwt *utils.JWTManager, adminKey string) AuthServiceInterface {
	return &AuthService{jwt: jwt, adminKey: adminKey}
}

// IssueToken hands out a token for a fresh guest user. Presenting the admin
// key upgrades the role; a wrong key is rejected rather than downgraded.
func (a *AuthService) IssueToken(_ context.Context, adminKey string) (*resp.TokenResponse, error) {
	role := utils.RoleGuest
	if adminKey != "" {
		if a.adminKey == "" || subtle.ConstantTimeCompare([]byte(adminKey), []byte(a.adminKey)) != 1 {
			return nil, utils.ErrUnauthorized
		}
		role = utils.RoleAdmin
	}

	userID := uuid.NewString()
	token, expires, err := a.jwt.CreateToken(userID, role)
	if err != nil {
		return nil, err
	}
	return &resp.TokenResponse{
		Token:     token,
		UserID:    userID,
		Role:      role,
		ExpiresAt: utils.FormatRFC3339(expires),
	}, nil
}
