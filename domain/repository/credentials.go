package repository

import (
	"context"

	"omnicast/domain/model"
)

// ICredentialIssuer produces the credentials stored when a user connects a
// platform account.
type ICredentialIssuer interface {
	Issue(ctx context.Context, platformName string) (*model.PlatformCredentials, error)
}
