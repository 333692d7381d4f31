package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldDistinguishesAbsentNullAndValue(t *testing.T) {
	var patch PlatformPatch
	require.NoError(t, json.Unmarshal([]byte(`{"isConnected":false,"accessToken":null}`), &patch))

	assert.True(t, patch.IsConnected.Set)
	assert.False(t, patch.IsConnected.Null)
	assert.False(t, patch.IsConnected.Value)
	assert.True(t, patch.AccessToken.Set)
	assert.True(t, patch.AccessToken.Null)
	assert.Nil(t, patch.AccessToken.Ptr())
	assert.False(t, patch.RefreshToken.Set)
	assert.False(t, patch.Empty())

	var empty PlatformPatch
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.True(t, empty.Empty())
}

func TestPlatformPatchApply(t *testing.T) {
	token := "tok"
	name := "Demo Channel"
	pl := Platform{
		ID:               1,
		UserID:           1,
		PlatformName:     PlatformYouTube,
		IsConnected:      true,
		AccessToken:      &token,
		PlatformUsername: &name,
		AdditionalData:   JSONMap{"a": 1.0},
	}

	var patch PlatformPatch
	require.NoError(t, json.Unmarshal([]byte(`{"platformName":null,"isConnected":false,"accessToken":null,"additionalData":{"b":true}}`), &patch))
	patch.Apply(&pl)

	assert.Equal(t, PlatformYouTube, pl.PlatformName, "null ignored for non-nullable column")
	assert.False(t, pl.IsConnected)
	assert.Nil(t, pl.AccessToken)
	assert.Equal(t, &name, pl.PlatformUsername, "absent field untouched")
	assert.Equal(t, JSONMap{"b": true}, pl.AdditionalData)

	PlatformPatch{AdditionalData: Null[JSONMap]()}.Apply(&pl)
	assert.Equal(t, JSONMap{}, pl.AdditionalData)
}

func TestUploadPlatformPatchStampsCompletedAtOnce(t *testing.T) {
	first := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	up := UploadPlatform{Status: StatusUploading}

	UploadPlatformPatch{UploadProgress: Set(40)}.Apply(&up, first)
	assert.Nil(t, up.CompletedAt)
	assert.Equal(t, 40, up.UploadProgress)

	UploadPlatformPatch{Status: Set(StatusCompleted), UploadProgress: Set(100)}.Apply(&up, first)
	require.NotNil(t, up.CompletedAt)
	assert.Equal(t, first, *up.CompletedAt)

	UploadPlatformPatch{Status: Set(StatusCompleted)}.Apply(&up, first.Add(time.Hour))
	assert.Equal(t, first, *up.CompletedAt)

	UploadPlatformPatch{ErrorMessage: Set("boom"), PlatformVideoURL: Null[string]()}.Apply(&up, first)
	assert.Equal(t, "boom", *up.ErrorMessage)
	assert.Nil(t, up.PlatformVideoURL)
}

func TestJSONMapScanAndClone(t *testing.T) {
	var m JSONMap
	require.NoError(t, m.Scan([]byte(`{"nested":{"k":[1,2]}}`)))
	clone := m.Clone()
	clone["nested"].(map[string]interface{})["k"] = "changed"
	assert.Equal(t, []interface{}{1.0, 2.0}, m["nested"].(map[string]interface{})["k"])

	require.NoError(t, m.Scan(nil))
	assert.Equal(t, JSONMap{}, m)
	assert.Error(t, m.Scan(42))

	v, err := JSONMap(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}

func TestDeliveryEventFromRow(t *testing.T) {
	url := "https://example.com/1/2"
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	evt := NewDeliveryEvent(7, UploadPlatform{ID: 3, UploadID: 2, PlatformID: 1, Status: StatusCompleted, UploadProgress: 100, PlatformVideoURL: &url}, at)

	assert.Equal(t, DeliveryEventType, evt.Type)
	assert.Equal(t, int64(7), evt.UserID)
	assert.True(t, evt.Terminal())
	assert.False(t, DeliveryEvent{Status: StatusProcessing}.Terminal())
}
