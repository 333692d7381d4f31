package usecase

import (
	"context"

	"omnicast/domain/apperror"
	"omnicast/domain/model"
	"omnicast/domain/repository"
)

type IUserUsecase interface {
	GetCurrentUser(ctx context.Context, userID int64) (*model.User, error)
}

type UserUsecase struct {
	userRepository repository.IUser
}

func NewUserUsecase(userRepository repository.IUser) IUserUsecase {
	return &UserUsecase{userRepository: userRepository}
}

// GetCurrentUser returns the caller's profile. The password never leaves the
// store: it is blanked here and excluded from JSON.
func (u *UserUsecase) GetCurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := u.userRepository.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user %d", userID)
	}
	user.Password = ""
	return user, nil
}
