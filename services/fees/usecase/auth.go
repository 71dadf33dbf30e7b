package usecase

import (
	"context"
	"strings"
	"time"

	"schoolfee/domain"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// TokenSigner issues a signed token for an authenticated user.
type TokenSigner func(userID int, username, role string) (string, error)

type authUC struct {
	users   domain.UserRepo
	sign    TokenSigner
	TimeOut time.Duration
}

func NewAuthUseCase(users domain.UserRepo, sign TokenSigner, timeOut time.Duration) domain.AuthUseCase {
	return &authUC{
		users:   users,
		sign:    sign,
		TimeOut: timeOut,
	}
}

func (auc *authUC) Login(ctx context.Context, data *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, auc.TimeOut)
	defer cancel()

	if err := validateModel(data); err != nil {
		return nil, err
	}

	user, err := auc.users.FindUserByUsername(ctx, strings.TrimSpace(data.Username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(data.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := auc.sign(user.UserID, user.Username, user.Role)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign token")
	}
	return &domain.LoginResponse{Token: token, Role: user.Role}, nil
}
