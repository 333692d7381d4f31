package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"omnicast/domain/apperror"
	"omnicast/domain/model"
	"omnicast/domain/repository"
	"omnicast/infrastructure/logger"
)

const (
	userColumns           = `id, username, password, email, avatar_url, created_at`
	platformColumns       = `id, user_id, platform_name, is_connected, access_token, refresh_token, token_expiry, platform_user_id, platform_username, additional_data`
	uploadColumns         = `id, user_id, title, description, tags, file_name, file_size, duration, thumbnail_url, visibility, uploaded_at`
	uploadPlatformColumns = `id, upload_id, platform_id, status, platform_video_id, platform_video_url, upload_progress, error_message, platform_settings, completed_at`
)

// PostgresStorage implements IStorage on PostgreSQL using database/sql.
type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(db *sql.DB) *PostgresStorage { return &PostgresStorage{db: db} }

var _ repository.IStorage = (*PostgresStorage)(nil)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *PostgresStorage) GetUser(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Internal(err, "query user %d", id)
	}
	return u, nil
}

func (s *PostgresStorage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Internal(err, "query user %q", username)
	}
	return u, nil
}

func (s *PostgresStorage) CreateUser(ctx context.Context, in model.NewUser) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password, email, avatar_url) VALUES ($1, $2, $3, $4) RETURNING `+userColumns,
		in.Username, in.Password, in.Email, in.AvatarURL)
	u, err := scanUser(row)
	if err != nil {
		logger.FromContext(ctx).WithField("error", err).WithField("username", in.Username).Error("postgres: create user failed")
		return nil, apperror.Internal(err, "create user")
	}
	return u, nil
}

func (s *PostgresStorage) HasUsers(ctx context.Context) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users)`).Scan(&exists); err != nil {
		return false, apperror.Internal(err, "count users")
	}
	return exists, nil
}

func (s *PostgresStorage) GetPlatformsByUserID(ctx context.Context, userID int64) ([]model.Platform, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+platformColumns+` FROM platforms WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, apperror.Internal(err, "query platforms of user %d", userID)
	}
	defer rows.Close()
	list := make([]model.Platform, 0)
	for rows.Next() {
		p, err := scanPlatform(rows)
		if err != nil {
			return nil, apperror.Internal(err, "scan platform")
		}
		list = append(list, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Internal(err, "iterate platforms")
	}
	return list, nil
}

func (s *PostgresStorage) GetPlatform(ctx context.Context, id int64) (*model.Platform, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+platformColumns+` FROM platforms WHERE id = $1`, id)
	p, err := scanPlatform(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Internal(err, "query platform %d", id)
	}
	return p, nil
}

func (s *PostgresStorage) CreatePlatform(ctx context.Context, in model.NewPlatform) (*model.Platform, error) {
	data := in.AdditionalData
	if data == nil {
		data = model.JSONMap{}
	}
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO platforms (user_id, platform_name, is_connected, access_token, refresh_token, token_expiry, platform_user_id, platform_username, additional_data) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING `+platformColumns,
		in.UserID, in.PlatformName, in.IsConnected, in.AccessToken, in.RefreshToken, in.TokenExpiry, in.PlatformUserID, in.PlatformUsername, data)
	p, err := scanPlatform(row)
	if err != nil {
		logger.FromContext(ctx).WithField("error", err).WithField("platform", in.PlatformName).Error("postgres: create platform failed")
		return nil, apperror.Internal(err, "create platform")
	}
	return p, nil
}

func (s *PostgresStorage) UpdatePlatform(ctx context.Context, id int64, patch model.PlatformPatch) (*model.Platform, error) {
	if patch.Empty() {
		p, err := s.GetPlatform(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, apperror.NotFound("platform %d", id)
		}
		return p, nil
	}

	var set setClause
	if patch.PlatformName.Set && !patch.PlatformName.Null {
		set.add("platform_name", patch.PlatformName.Value)
	}
	if patch.IsConnected.Set && !patch.IsConnected.Null {
		set.add("is_connected", patch.IsConnected.Value)
	}
	if patch.AccessToken.Set {
		set.add("access_token", nullable(patch.AccessToken))
	}
	if patch.RefreshToken.Set {
		set.add("refresh_token", nullable(patch.RefreshToken))
	}
	if patch.TokenExpiry.Set {
		set.add("token_expiry", nullable(patch.TokenExpiry))
	}
	if patch.PlatformUserID.Set {
		set.add("platform_user_id", nullable(patch.PlatformUserID))
	}
	if patch.PlatformUsername.Set {
		set.add("platform_username", nullable(patch.PlatformUsername))
	}
	if patch.AdditionalData.Set {
		set.add("additional_data", jsonOrEmpty(patch.AdditionalData))
	}
	if set.empty() {
		return s.UpdatePlatform(ctx, id, model.PlatformPatch{})
	}

	q := fmt.Sprintf(`UPDATE platforms SET %s WHERE id = $%d RETURNING %s`, set.String(), set.next(), platformColumns)
	p, err := scanPlatform(s.db.QueryRowContext(ctx, q, append(set.args, id)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("platform %d", id)
	}
	if err != nil {
		logger.FromContext(ctx).WithField("error", err).WithField("platform_id", id).Error("postgres: update platform failed")
		return nil, apperror.Internal(err, "update platform %d", id)
	}
	return p, nil
}

func (s *PostgresStorage) DeletePlatform(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM platforms WHERE id = $1`, id)
	if err != nil {
		return false, apperror.Internal(err, "delete platform %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperror.Internal(err, "delete platform %d", id)
	}
	return n > 0, nil
}

func (s *PostgresStorage) GetUploadsByUserID(ctx context.Context, userID int64) ([]model.Upload, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE user_id = $1 ORDER BY uploaded_at DESC, id DESC`, userID)
	if err != nil {
		return nil, apperror.Internal(err, "query uploads of user %d", userID)
	}
	defer rows.Close()
	list := make([]model.Upload, 0)
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, apperror.Internal(err, "scan upload")
		}
		list = append(list, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Internal(err, "iterate uploads")
	}
	return list, nil
}

func (s *PostgresStorage) GetUpload(ctx context.Context, id int64) (*model.Upload, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE id = $1`, id)
	u, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Internal(err, "query upload %d", id)
	}
	return u, nil
}

func (s *PostgresStorage) CreateUpload(ctx context.Context, in model.NewUpload) (*model.Upload, error) {
	visibility := in.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO uploads (user_id, title, description, tags, file_name, file_size, duration, thumbnail_url, visibility) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING `+uploadColumns,
		in.UserID, in.Title, in.Description, in.Tags, in.FileName, in.FileSize, in.Duration, in.ThumbnailURL, visibility)
	u, err := scanUpload(row)
	if err != nil {
		logger.FromContext(ctx).WithField("error", err).WithField("title", in.Title).Error("postgres: create upload failed")
		return nil, apperror.Internal(err, "create upload")
	}
	return u, nil
}

func (s *PostgresStorage) GetUploadPlatformsByUploadID(ctx context.Context, uploadID int64) ([]model.UploadPlatform, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+uploadPlatformColumns+` FROM upload_platforms WHERE upload_id = $1 ORDER BY id`, uploadID)
	if err != nil {
		return nil, apperror.Internal(err, "query upload platforms of upload %d", uploadID)
	}
	defer rows.Close()
	list := make([]model.UploadPlatform, 0)
	for rows.Next() {
		up, err := scanUploadPlatform(rows)
		if err != nil {
			return nil, apperror.Internal(err, "scan upload platform")
		}
		list = append(list, *up)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Internal(err, "iterate upload platforms")
	}
	return list, nil
}

func (s *PostgresStorage) GetUploadPlatform(ctx context.Context, id int64) (*model.UploadPlatform, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+uploadPlatformColumns+` FROM upload_platforms WHERE id = $1`, id)
	up, err := scanUploadPlatform(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Internal(err, "query upload platform %d", id)
	}
	return up, nil
}

func (s *PostgresStorage) CreateUploadPlatform(ctx context.Context, in model.NewUploadPlatform) (*model.UploadPlatform, error) {
	status := in.Status
	if status == "" {
		status = model.StatusPending
	}
	settings := in.PlatformSettings
	if settings == nil {
		settings = model.JSONMap{}
	}
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO upload_platforms (upload_id, platform_id, status, platform_settings) VALUES ($1, $2, $3, $4) RETURNING `+uploadPlatformColumns,
		in.UploadID, in.PlatformID, status, settings)
	up, err := scanUploadPlatform(row)
	if err != nil {
		logger.FromContext(ctx).WithField("error", err).WithField("upload_id", in.UploadID).Error("postgres: create upload platform failed")
		return nil, apperror.Internal(err, "create upload platform")
	}
	return up, nil
}

// UpdateUploadPlatform merges and stamps completed_at in one statement so
// concurrent writers cannot stamp it twice.
func (s *PostgresStorage) UpdateUploadPlatform(ctx context.Context, id int64, patch model.UploadPlatformPatch) (*model.UploadPlatform, error) {
	var set setClause
	statusExpr := "status"
	if patch.Status.Set && !patch.Status.Null {
		n := set.add("status", patch.Status.Value)
		statusExpr = fmt.Sprintf("$%d::text", n)
	}
	if patch.PlatformVideoID.Set {
		set.add("platform_video_id", nullable(patch.PlatformVideoID))
	}
	if patch.PlatformVideoURL.Set {
		set.add("platform_video_url", nullable(patch.PlatformVideoURL))
	}
	if patch.UploadProgress.Set && !patch.UploadProgress.Null {
		set.add("upload_progress", patch.UploadProgress.Value)
	}
	if patch.ErrorMessage.Set {
		set.add("error_message", nullable(patch.ErrorMessage))
	}
	if patch.PlatformSettings.Set {
		set.add("platform_settings", jsonOrEmpty(patch.PlatformSettings))
	}
	set.raw(fmt.Sprintf(`completed_at = CASE WHEN %s = 'completed' AND completed_at IS NULL THEN NOW() ELSE completed_at END`, statusExpr))

	q := fmt.Sprintf(`UPDATE upload_platforms SET %s WHERE id = $%d RETURNING %s`, set.String(), set.next(), uploadPlatformColumns)
	up, err := scanUploadPlatform(s.db.QueryRowContext(ctx, q, append(set.args, id)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("upload platform %d", id)
	}
	if err != nil {
		logger.FromContext(ctx).WithField("error", err).WithField("upload_platform_id", id).Error("postgres: update upload platform failed")
		return nil, apperror.Internal(err, "update upload platform %d", id)
	}
	return up, nil
}

// setClause accumulates "column = $n" assignments for dynamic UPDATEs.
type setClause struct {
	parts []string
	args  []interface{}
}

func (s *setClause) add(column string, v interface{}) int {
	s.args = append(s.args, v)
	n := len(s.args)
	s.parts = append(s.parts, fmt.Sprintf("%s = $%d", column, n))
	return n
}

func (s *setClause) raw(expr string) { s.parts = append(s.parts, expr) }

func (s *setClause) empty() bool { return len(s.parts) == 0 }

func (s *setClause) next() int { return len(s.args) + 1 }

func (s *setClause) String() string { return strings.Join(s.parts, ", ") }

func nullable[T any](f model.Field[T]) interface{} {
	if f.Null {
		return nil
	}
	return f.Value
}

func jsonOrEmpty(f model.Field[model.JSONMap]) model.JSONMap {
	if f.Null || f.Value == nil {
		return model.JSONMap{}
	}
	return f.Value
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	var avatar sql.NullString
	if err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Email, &avatar, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.AvatarURL = stringPtr(avatar)
	return &u, nil
}

func scanPlatform(row rowScanner) (*model.Platform, error) {
	var p model.Platform
	var access, refresh, platformUserID, platformUsername sql.NullString
	var expiry sql.NullTime
	if err := row.Scan(&p.ID, &p.UserID, &p.PlatformName, &p.IsConnected, &access, &refresh, &expiry, &platformUserID, &platformUsername, &p.AdditionalData); err != nil {
		return nil, err
	}
	p.AccessToken = stringPtr(access)
	p.RefreshToken = stringPtr(refresh)
	if expiry.Valid {
		t := expiry.Time
		p.TokenExpiry = &t
	}
	p.PlatformUserID = stringPtr(platformUserID)
	p.PlatformUsername = stringPtr(platformUsername)
	return &p, nil
}

func scanUpload(row rowScanner) (*model.Upload, error) {
	var u model.Upload
	var description, tags, thumbnail sql.NullString
	var duration sql.NullInt64
	if err := row.Scan(&u.ID, &u.UserID, &u.Title, &description, &tags, &u.FileName, &u.FileSize, &duration, &thumbnail, &u.Visibility, &u.UploadedAt); err != nil {
		return nil, err
	}
	u.Description = stringPtr(description)
	u.Tags = stringPtr(tags)
	u.ThumbnailURL = stringPtr(thumbnail)
	if duration.Valid {
		d := int(duration.Int64)
		u.Duration = &d
	}
	return &u, nil
}

func scanUploadPlatform(row rowScanner) (*model.UploadPlatform, error) {
	var up model.UploadPlatform
	var videoID, videoURL, errMsg sql.NullString
	var completedAt sql.NullTime
	if err := row.Scan(&up.ID, &up.UploadID, &up.PlatformID, &up.Status, &videoID, &videoURL, &up.UploadProgress, &errMsg, &up.PlatformSettings, &completedAt); err != nil {
		return nil, err
	}
	up.PlatformVideoID = stringPtr(videoID)
	up.PlatformVideoURL = stringPtr(videoURL)
	up.ErrorMessage = stringPtr(errMsg)
	if completedAt.Valid {
		t := completedAt.Time
		up.CompletedAt = &t
	}
	return &up, nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
