package persistence

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"omnicast/domain/apperror"
	"omnicast/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockGorm(t *testing.T) (*GormStorage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	gdb, err := gorm.Open(mysql.New(mysql.Config{Conn: db, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return NewGormStorage(gdb), mock
}

func TestGormStorage_GetUserMissingIsNil(t *testing.T) {
	s, mock := newMockGorm(t)
	mock.ExpectQuery("SELECT \\* FROM `users` WHERE `users`.`id` = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "email", "avatar_url", "created_at"}))

	u, err := s.GetUser(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, u)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStorage_HasUsers(t *testing.T) {
	s, mock := newMockGorm(t)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))

	ok, err := s.HasUsers(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGormStorage_GetPlatformsByUserID(t *testing.T) {
	s, mock := newMockGorm(t)
	mock.ExpectQuery("SELECT \\* FROM `platforms` WHERE user_id = \\? ORDER BY id").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(platformCols).
			AddRow(1, 1, "youtube", true, "dummy_token", nil, nil, nil, nil, []byte(`{"a":"b"}`)))

	list, err := s.GetPlatformsByUserID(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.JSONMap{"a": "b"}, list[0].AdditionalData)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStorage_UpdateUploadPlatformMissing(t *testing.T) {
	s, mock := newMockGorm(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `upload_platforms` WHERE `upload_platforms`.`id` = \\? .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(uploadPlatformCols))
	mock.ExpectRollback()

	_, err := s.UpdateUploadPlatform(context.Background(), 8, model.UploadPlatformPatch{UploadProgress: model.Set(10)})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

// timeArg matches a time parameter by instant.
type timeArg struct{ want time.Time }

func (a timeArg) Match(v driver.Value) bool {
	got, ok := v.(time.Time)
	return ok && got.Equal(a.want)
}

func TestGormStorage_GetUploadsByUserIDNewestFirst(t *testing.T) {
	s, mock := newMockGorm(t)
	newer := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	mock.ExpectQuery("SELECT \\* FROM `uploads` WHERE user_id = \\? ORDER BY uploaded_at DESC,\\s?id DESC").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(uploadCols).
			AddRow(3, 1, "c", "", "", "c.mp4", 10, nil, nil, "public", newer).
			AddRow(2, 1, "b", "", "", "b.mp4", 10, nil, nil, "public", newer).
			AddRow(1, 1, "a", "", "", "a.mp4", 10, nil, nil, "public", older))

	list, err := s.GetUploadsByUserID(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{list[0].ID, list[1].ID, list[2].ID})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStorage_UpdateUploadPlatformStampsCompletion(t *testing.T) {
	s, mock := newMockGorm(t)
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `upload_platforms` WHERE `upload_platforms`.`id` = \\? .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(uploadPlatformCols).
			AddRow(5, 2, 1, "processing", nil, nil, 80, nil, []byte(`{"playlist":"Demos"}`), nil))
	mock.ExpectExec("UPDATE `upload_platforms` SET .*`completed_at`=\\? WHERE .*`id` = \\?").
		WithArgs(int64(2), int64(1), "completed", "1_99", "https://example.com/1/99", 100, nil, sqlmock.AnyArg(), timeArg{now}, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	row, err := s.UpdateUploadPlatform(context.Background(), 5, model.UploadPlatformPatch{
		Status:           model.Set(model.StatusCompleted),
		UploadProgress:   model.Set(100),
		PlatformVideoID:  model.Set("1_99"),
		PlatformVideoURL: model.Set("https://example.com/1/99"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, row.Status)
	assert.Equal(t, 100, row.UploadProgress)
	assert.Equal(t, model.JSONMap{"playlist": "Demos"}, row.PlatformSettings)
	require.NotNil(t, row.CompletedAt)
	assert.True(t, row.CompletedAt.Equal(now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStorage_UpdateUploadPlatformKeepsFirstCompletion(t *testing.T) {
	s, mock := newMockGorm(t)
	first := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return first.Add(time.Hour) }

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `upload_platforms` WHERE `upload_platforms`.`id` = \\? .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(uploadPlatformCols).
			AddRow(5, 2, 1, "completed", "1_99", "https://example.com/1/99", 100, nil, []byte(`{}`), first))
	mock.ExpectExec("UPDATE `upload_platforms` SET .*`completed_at`=\\? WHERE .*`id` = \\?").
		WithArgs(int64(2), int64(1), "completed", "1_99", "https://example.com/1/99", 100, nil, sqlmock.AnyArg(), timeArg{first}, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	row, err := s.UpdateUploadPlatform(context.Background(), 5, model.UploadPlatformPatch{
		Status: model.Set(model.StatusCompleted),
	})
	require.NoError(t, err)
	require.NotNil(t, row.CompletedAt)
	assert.True(t, row.CompletedAt.Equal(first))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStorage_UpdatePlatformMerges(t *testing.T) {
	s, mock := newMockGorm(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `platforms` WHERE `platforms`.`id` = \\? .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(platformCols).
			AddRow(2, 1, "facebook", true, "old_token", "old_refresh", nil, "facebook_user_7", "Demo Facebook Account", []byte(`{"pageId":"p1"}`)))
	mock.ExpectExec("UPDATE `platforms` SET .*`additional_data`=\\? WHERE .*`id` = \\?").
		WithArgs(int64(1), "facebook", false, nil, "old_refresh", nil, "facebook_user_7", "Demo Facebook Account", sqlmock.AnyArg(), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := s.UpdatePlatform(context.Background(), 2, model.PlatformPatch{
		IsConnected: model.Set(false),
		AccessToken: model.Null[string](),
	})
	require.NoError(t, err)
	assert.Equal(t, "facebook", p.PlatformName)
	assert.False(t, p.IsConnected)
	assert.Nil(t, p.AccessToken)
	require.NotNil(t, p.RefreshToken)
	assert.Equal(t, "old_refresh", *p.RefreshToken)
	assert.Equal(t, model.JSONMap{"pageId": "p1"}, p.AdditionalData)
	require.NoError(t, mock.ExpectationsWereMet())
}

