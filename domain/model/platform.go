package model

import (
	"time"

	"golang.org/x/oauth2"
)

const (
	PlatformYouTube   = "youtube"
	PlatformFacebook  = "facebook"
	PlatformTwitter   = "twitter"
	PlatformInstagram = "instagram"
)

// Platform is a user's connection to one social platform. At most one row per
// (user, platformName) is expected, but the store does not enforce it.
type Platform struct {
	ID               int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID           int64      `json:"userId" gorm:"index;not null"`
	PlatformName     string     `json:"platformName" gorm:"size:64;not null"`
	IsConnected      bool       `json:"isConnected" gorm:"not null;default:false"`
	AccessToken      *string    `json:"accessToken"`
	RefreshToken     *string    `json:"refreshToken"`
	TokenExpiry      *time.Time `json:"tokenExpiry"`
	PlatformUserID   *string    `json:"platformUserId" gorm:"size:255"`
	PlatformUsername *string    `json:"platformUsername" gorm:"size:255"`
	AdditionalData   JSONMap    `json:"additionalData"`
}

func (Platform) TableName() string { return "platforms" }

type NewPlatform struct {
	UserID           int64
	PlatformName     string
	IsConnected      bool
	AccessToken      *string
	RefreshToken     *string
	TokenExpiry      *time.Time
	PlatformUserID   *string
	PlatformUsername *string
	AdditionalData   JSONMap
}

// PlatformPatch is a shallow merge onto a stored Platform. The owner is not
// part of it and can never be changed.
type PlatformPatch struct {
	PlatformName     Field[string]    `json:"platformName"`
	IsConnected      Field[bool]      `json:"isConnected"`
	AccessToken      Field[string]    `json:"accessToken"`
	RefreshToken     Field[string]    `json:"refreshToken"`
	TokenExpiry      Field[time.Time] `json:"tokenExpiry"`
	PlatformUserID   Field[string]    `json:"platformUserId"`
	PlatformUsername Field[string]    `json:"platformUsername"`
	AdditionalData   Field[JSONMap]   `json:"additionalData"`
}

func (p PlatformPatch) Empty() bool {
	return !p.PlatformName.Set && !p.IsConnected.Set && !p.AccessToken.Set &&
		!p.RefreshToken.Set && !p.TokenExpiry.Set && !p.PlatformUserID.Set &&
		!p.PlatformUsername.Set && !p.AdditionalData.Set
}

// Apply merges the supplied fields onto pl. Non-nullable columns ignore an
// explicit null.
func (p PlatformPatch) Apply(pl *Platform) {
	if p.PlatformName.Set && !p.PlatformName.Null {
		pl.PlatformName = p.PlatformName.Value
	}
	if p.IsConnected.Set && !p.IsConnected.Null {
		pl.IsConnected = p.IsConnected.Value
	}
	if p.AccessToken.Set {
		pl.AccessToken = p.AccessToken.Ptr()
	}
	if p.RefreshToken.Set {
		pl.RefreshToken = p.RefreshToken.Ptr()
	}
	if p.TokenExpiry.Set {
		pl.TokenExpiry = p.TokenExpiry.Ptr()
	}
	if p.PlatformUserID.Set {
		pl.PlatformUserID = p.PlatformUserID.Ptr()
	}
	if p.PlatformUsername.Set {
		pl.PlatformUsername = p.PlatformUsername.Ptr()
	}
	if p.AdditionalData.Set {
		if p.AdditionalData.Null {
			pl.AdditionalData = JSONMap{}
		} else {
			pl.AdditionalData = p.AdditionalData.Value.Clone()
		}
	}
}

func (pl Platform) Clone() Platform {
	out := pl
	out.AdditionalData = pl.AdditionalData.Clone()
	return out
}

// PlatformCredentials is the outcome of connecting a platform account.
type PlatformCredentials struct {
	Token       *oauth2.Token
	AccountID   string
	AccountName string
}
