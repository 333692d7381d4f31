package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"omnicast/domain/apperror"
	"omnicast/domain/model"
	"omnicast/domain/repository"
	"omnicast/infrastructure/configuration"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// NewGormDB opens the MySQL database described by the mysql config.
func NewGormDB() (*gorm.DB, error) {
	cfg := configuration.C.Database.MySql
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// EnsureGormSchema migrates every table GormStorage uses.
func EnsureGormSchema(db *gorm.DB) error {
	return db.AutoMigrate(&model.User{}, &model.Platform{}, &model.Upload{}, &model.UploadPlatform{})
}

// GormStorage implements IStorage with gorm. Updates lock the row and merge
// inside a transaction.
type GormStorage struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db, now: func() time.Time { return time.Now().UTC() }}
}

var _ repository.IStorage = (*GormStorage)(nil)

func (s *GormStorage) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFoundAsNil(err, "query user %d", id)
	}
	return &u, nil
}

func (s *GormStorage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFoundAsNil(err, "query user %q", username)
	}
	return &u, nil
}

func (s *GormStorage) CreateUser(ctx context.Context, in model.NewUser) (*model.User, error) {
	u := model.User{
		Username:  in.Username,
		Password:  in.Password,
		Email:     in.Email,
		AvatarURL: in.AvatarURL,
		CreatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, apperror.Internal(err, "create user")
	}
	return &u, nil
}

func (s *GormStorage) HasUsers(ctx context.Context) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error; err != nil {
		return false, apperror.Internal(err, "count users")
	}
	return n > 0, nil
}

func (s *GormStorage) GetPlatformsByUserID(ctx context.Context, userID int64) ([]model.Platform, error) {
	list := make([]model.Platform, 0)
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&list).Error; err != nil {
		return nil, apperror.Internal(err, "query platforms of user %d", userID)
	}
	return list, nil
}

func (s *GormStorage) GetPlatform(ctx context.Context, id int64) (*model.Platform, error) {
	var p model.Platform
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFoundAsNil(err, "query platform %d", id)
	}
	return &p, nil
}

func (s *GormStorage) CreatePlatform(ctx context.Context, in model.NewPlatform) (*model.Platform, error) {
	data := in.AdditionalData.Clone()
	if data == nil {
		data = model.JSONMap{}
	}
	p := model.Platform{
		UserID:           in.UserID,
		PlatformName:     in.PlatformName,
		IsConnected:      in.IsConnected,
		AccessToken:      in.AccessToken,
		RefreshToken:     in.RefreshToken,
		TokenExpiry:      in.TokenExpiry,
		PlatformUserID:   in.PlatformUserID,
		PlatformUsername: in.PlatformUsername,
		AdditionalData:   data,
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, apperror.Internal(err, "create platform")
	}
	return &p, nil
}

func (s *GormStorage) UpdatePlatform(ctx context.Context, id int64, patch model.PlatformPatch) (*model.Platform, error) {
	var out model.Platform
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&out, id).Error; err != nil {
			return err
		}
		patch.Apply(&out)
		return tx.Save(&out).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("platform %d", id)
	}
	if err != nil {
		return nil, apperror.Internal(err, "update platform %d", id)
	}
	return &out, nil
}

func (s *GormStorage) DeletePlatform(ctx context.Context, id int64) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&model.Platform{}, id)
	if res.Error != nil {
		return false, apperror.Internal(res.Error, "delete platform %d", id)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStorage) GetUploadsByUserID(ctx context.Context, userID int64) ([]model.Upload, error) {
	list := make([]model.Upload, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("uploaded_at DESC").
		Order("id DESC").
		Find(&list).Error
	if err != nil {
		return nil, apperror.Internal(err, "query uploads of user %d", userID)
	}
	return list, nil
}

func (s *GormStorage) GetUpload(ctx context.Context, id int64) (*model.Upload, error) {
	var u model.Upload
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFoundAsNil(err, "query upload %d", id)
	}
	return &u, nil
}

func (s *GormStorage) CreateUpload(ctx context.Context, in model.NewUpload) (*model.Upload, error) {
	visibility := in.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}
	u := model.Upload{
		UserID:       in.UserID,
		Title:        in.Title,
		Description:  in.Description,
		Tags:         in.Tags,
		FileName:     in.FileName,
		FileSize:     in.FileSize,
		Duration:     in.Duration,
		ThumbnailURL: in.ThumbnailURL,
		Visibility:   visibility,
		UploadedAt:   s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, apperror.Internal(err, "create upload")
	}
	return &u, nil
}

func (s *GormStorage) GetUploadPlatformsByUploadID(ctx context.Context, uploadID int64) ([]model.UploadPlatform, error) {
	list := make([]model.UploadPlatform, 0)
	if err := s.db.WithContext(ctx).Where("upload_id = ?", uploadID).Order("id").Find(&list).Error; err != nil {
		return nil, apperror.Internal(err, "query upload platforms of upload %d", uploadID)
	}
	return list, nil
}

func (s *GormStorage) GetUploadPlatform(ctx context.Context, id int64) (*model.UploadPlatform, error) {
	var up model.UploadPlatform
	if err := s.db.WithContext(ctx).First(&up, id).Error; err != nil {
		return nil, notFoundAsNil(err, "query upload platform %d", id)
	}
	return &up, nil
}

func (s *GormStorage) CreateUploadPlatform(ctx context.Context, in model.NewUploadPlatform) (*model.UploadPlatform, error) {
	status := in.Status
	if status == "" {
		status = model.StatusPending
	}
	settings := in.PlatformSettings.Clone()
	if settings == nil {
		settings = model.JSONMap{}
	}
	up := model.UploadPlatform{
		UploadID:         in.UploadID,
		PlatformID:       in.PlatformID,
		Status:           status,
		PlatformSettings: settings,
	}
	if err := s.db.WithContext(ctx).Create(&up).Error; err != nil {
		return nil, apperror.Internal(err, "create upload platform")
	}
	return &up, nil
}

func (s *GormStorage) UpdateUploadPlatform(ctx context.Context, id int64, patch model.UploadPlatformPatch) (*model.UploadPlatform, error) {
	var out model.UploadPlatform
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&out, id).Error; err != nil {
			return err
		}
		patch.Apply(&out, s.now())
		return tx.Save(&out).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("upload platform %d", id)
	}
	if err != nil {
		return nil, apperror.Internal(err, "update upload platform %d", id)
	}
	return &out, nil
}

func notFoundAsNil(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return apperror.Internal(err, format, args...)
}
