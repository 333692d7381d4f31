package persistence

import (
	"context"
	"fmt"
	"time"

	"omnicast/domain/model"
	"omnicast/domain/repository"
	"omnicast/infrastructure/logger"
)

const DemoUsername = "demouser"

type seedPlatform struct {
	name      string
	connected bool
	userID    string
	username  string
}

type seedDelivery struct {
	platform string
	videoID  string
	videoURL string
	settings model.JSONMap
}

type seedUpload struct {
	title       string
	description string
	tags        string
	fileName    string
	fileSize    int64
	duration    int
	thumbnail   string
	visibility  string
	deliveries  []seedDelivery
}

var demoPlatforms = []seedPlatform{
	{model.PlatformYouTube, true, "youtube_user_123", "Demo Channel"},
	{model.PlatformFacebook, true, "facebook_user_123", "Demo Page"},
	{model.PlatformTwitter, false, "", ""},
	{model.PlatformInstagram, true, "instagram_user_123", "demogram"},
}

var demoUploads = []seedUpload{
	{
		title:       "How to Use OmniCast Platform",
		description: "A complete tutorial on using the OmniCast platform for multi-platform uploads",
		tags:        "tutorial,omnicast,howto",
		fileName:    "omnicast-tutorial.mp4",
		fileSize:    24500000,
		duration:    154,
		thumbnail:   "https://images.unsplash.com/photo-1526328828355-69b01701ca6a?ixlib=rb-1.2.1&auto=format&fit=crop&w=120&h=80&q=80",
		visibility:  model.VisibilityPublic,
		deliveries: []seedDelivery{
			{model.PlatformYouTube, "yt123456789", "https://youtube.com/watch?v=yt123456789", model.JSONMap{"playlist": "Tutorials"}},
			{model.PlatformFacebook, "fb987654321", "https://facebook.com/watch?v=fb987654321", model.JSONMap{"postAs": "Page"}},
		},
	},
	{
		title:       "Product Announcement - Summer 2023",
		description: "Exciting new features coming this summer!",
		tags:        "product,announcement,summer",
		fileName:    "summer-announcement.mp4",
		fileSize:    35200000,
		duration:    312,
		thumbnail:   "https://images.unsplash.com/photo-1591115765373-5207764f72e7?ixlib=rb-1.2.1&auto=format&fit=crop&w=120&h=80&q=80",
		visibility:  model.VisibilityPublic,
		deliveries: []seedDelivery{
			{model.PlatformYouTube, "yt567890123", "https://youtube.com/watch?v=yt567890123", model.JSONMap{"playlist": "Announcements"}},
			{model.PlatformFacebook, "fb234567890", "https://facebook.com/watch?v=fb234567890", model.JSONMap{"postAs": "Page"}},
			{model.PlatformInstagram, "ig345678901", "https://instagram.com/p/ig345678901", model.JSONMap{"shareToStories": true}},
		},
	},
	{
		title:       "Weekly Team Update - May 29",
		description: "Internal update for the team",
		tags:        "internal,update,team",
		fileName:    "team-update-may29.mp4",
		fileSize:    89400000,
		duration:    585,
		thumbnail:   "https://images.unsplash.com/photo-1576585269693-6c7136aa7373?ixlib=rb-1.2.1&auto=format&fit=crop&w=120&h=80&q=80",
		visibility:  model.VisibilityPrivate,
		deliveries: []seedDelivery{
			{model.PlatformYouTube, "yt678901234", "https://youtube.com/watch?v=yt678901234", model.JSONMap{"visibility": "private"}},
		},
	},
}

// SeedDemoData writes the demo user, its four platforms and three finished
// uploads. It does nothing when any user already exists.
func SeedDemoData(ctx context.Context, store repository.IStorage) error {
	seeded, err := store.HasUsers(ctx)
	if err != nil {
		return err
	}
	if seeded {
		logger.FromContext(ctx).Info("Users already present, skipping demo seed")
		return nil
	}

	avatar := "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?ixlib=rb-1.2.1&ixid=eyJhcHBfaWQiOjEyMDd9&auto=format&fit=facearea&facepad=2&w=256&h=256&q=80"
	user, err := store.CreateUser(ctx, model.NewUser{
		Username:  DemoUsername,
		Password:  "password123",
		Email:     "demo@example.com",
		AvatarURL: &avatar,
	})
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	platformIDs := make(map[string]int64, len(demoPlatforms))
	for _, sp := range demoPlatforms {
		in := model.NewPlatform{
			UserID:           user.ID,
			PlatformName:     sp.name,
			IsConnected:      sp.connected,
			PlatformUserID:   strPtr(sp.userID),
			PlatformUsername: strPtr(sp.username),
			AdditionalData:   model.JSONMap{},
		}
		if sp.connected {
			expiry := time.Now().UTC().Add(time.Hour)
			in.AccessToken = strPtr("dummy_token")
			in.RefreshToken = strPtr("dummy_refresh")
			in.TokenExpiry = &expiry
		}
		p, err := store.CreatePlatform(ctx, in)
		if err != nil {
			return fmt.Errorf("seed platform %s: %w", sp.name, err)
		}
		platformIDs[sp.name] = p.ID
	}

	for _, su := range demoUploads {
		duration := su.duration
		upload, err := store.CreateUpload(ctx, model.NewUpload{
			UserID:       user.ID,
			Title:        su.title,
			Description:  strPtr(su.description),
			Tags:         strPtr(su.tags),
			FileName:     su.fileName,
			FileSize:     su.fileSize,
			Duration:     &duration,
			ThumbnailURL: strPtr(su.thumbnail),
			Visibility:   su.visibility,
		})
		if err != nil {
			return fmt.Errorf("seed upload %q: %w", su.title, err)
		}
		for _, d := range su.deliveries {
			row, err := store.CreateUploadPlatform(ctx, model.NewUploadPlatform{
				UploadID:         upload.ID,
				PlatformID:       platformIDs[d.platform],
				Status:           model.StatusUploading,
				PlatformSettings: d.settings,
			})
			if err != nil {
				return fmt.Errorf("seed delivery %s of %q: %w", d.platform, su.title, err)
			}
			// Finishing through an update lets the store stamp completedAt.
			_, err = store.UpdateUploadPlatform(ctx, row.ID, model.UploadPlatformPatch{
				Status:           model.Set(model.StatusCompleted),
				UploadProgress:   model.Set(100),
				PlatformVideoID:  model.Set(d.videoID),
				PlatformVideoURL: model.Set(d.videoURL),
			})
			if err != nil {
				return fmt.Errorf("seed delivery %s of %q: %w", d.platform, su.title, err)
			}
		}
	}

	logger.FromContext(ctx).WithFields(map[string]interface{}{
		"user_id":   user.ID,
		"platforms": len(demoPlatforms),
		"uploads":   len(demoUploads),
	}).Info("Demo data seeded")
	return nil
}

func strPtr(s string) *string { return &s }
