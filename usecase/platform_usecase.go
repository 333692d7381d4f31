package usecase

import (
	"context"
	"strings"
	"time"

	"omnicast/domain/apperror"
	"omnicast/domain/model"
	"omnicast/domain/repository"
	"omnicast/infrastructure/logger"
)

type IPlatformUsecase interface {
	List(ctx context.Context, userID int64) ([]model.Platform, error)
	Update(ctx context.Context, userID, platformID int64, patch model.PlatformPatch) (*model.Platform, error)
	// Connect returns created=true when no row existed for the platform name.
	Connect(ctx context.Context, userID int64, platformName string) (platform *model.Platform, created bool, err error)
	Disconnect(ctx context.Context, userID int64, platformName string) (*model.Platform, error)
}

type PlatformUsecase struct {
	platformRepository repository.IPlatform
	issuer             repository.ICredentialIssuer
}

func NewPlatformUsecase(platformRepository repository.IPlatform, issuer repository.ICredentialIssuer) IPlatformUsecase {
	return &PlatformUsecase{platformRepository: platformRepository, issuer: issuer}
}

func (u *PlatformUsecase) List(ctx context.Context, userID int64) ([]model.Platform, error) {
	return u.platformRepository.GetPlatformsByUserID(ctx, userID)
}

func (u *PlatformUsecase) Update(ctx context.Context, userID, platformID int64, patch model.PlatformPatch) (*model.Platform, error) {
	existing, err := u.platformRepository.GetPlatform(ctx, platformID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperror.NotFound("platform %d", platformID)
	}
	if existing.UserID != userID {
		return nil, apperror.Forbidden("platform %d belongs to another user", platformID)
	}
	return u.platformRepository.UpdatePlatform(ctx, platformID, patch)
}

func (u *PlatformUsecase) Connect(ctx context.Context, userID int64, platformName string) (*model.Platform, bool, error) {
	platformName = strings.TrimSpace(platformName)
	if platformName == "" {
		return nil, false, apperror.Validation("platform name is required")
	}
	existing, err := u.findByName(ctx, userID, platformName)
	if err != nil {
		return nil, false, err
	}
	creds, err := u.issuer.Issue(ctx, platformName)
	if err != nil {
		return nil, false, apperror.Internal(err, "issue %s credentials", platformName)
	}
	expiry := creds.Token.Expiry

	log := logger.FromContext(ctx).WithField("user_id", userID).WithField("platform", platformName)
	if existing != nil {
		updated, err := u.platformRepository.UpdatePlatform(ctx, existing.ID, model.PlatformPatch{
			IsConnected:      model.Set(true),
			AccessToken:      model.Set(creds.Token.AccessToken),
			RefreshToken:     model.Set(creds.Token.RefreshToken),
			TokenExpiry:      model.Set(expiry),
			PlatformUserID:   model.Set(creds.AccountID),
			PlatformUsername: model.Set(creds.AccountName),
		})
		if err != nil {
			return nil, false, err
		}
		log.Info("platform reconnected")
		return updated, false, nil
	}

	created, err := u.platformRepository.CreatePlatform(ctx, model.NewPlatform{
		UserID:           userID,
		PlatformName:     platformName,
		IsConnected:      true,
		AccessToken:      &creds.Token.AccessToken,
		RefreshToken:     &creds.Token.RefreshToken,
		TokenExpiry:      &expiry,
		PlatformUserID:   &creds.AccountID,
		PlatformUsername: &creds.AccountName,
		AdditionalData:   model.JSONMap{},
	})
	if err != nil {
		return nil, false, err
	}
	log.Info("platform connected")
	return created, true, nil
}

// Disconnect keeps the row and its account identity but drops the tokens.
func (u *PlatformUsecase) Disconnect(ctx context.Context, userID int64, platformName string) (*model.Platform, error) {
	existing, err := u.findByName(ctx, userID, strings.TrimSpace(platformName))
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperror.NotFound("platform %q", platformName)
	}
	updated, err := u.platformRepository.UpdatePlatform(ctx, existing.ID, model.PlatformPatch{
		IsConnected:  model.Set(false),
		AccessToken:  model.Null[string](),
		RefreshToken: model.Null[string](),
		TokenExpiry:  model.Null[time.Time](),
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).WithField("user_id", userID).WithField("platform", platformName).Info("platform disconnected")
	return updated, nil
}

func (u *PlatformUsecase) findByName(ctx context.Context, userID int64, platformName string) (*model.Platform, error) {
	platforms, err := u.platformRepository.GetPlatformsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range platforms {
		if platforms[i].PlatformName == platformName {
			return &platforms[i], nil
		}
	}
	return nil, nil
}
