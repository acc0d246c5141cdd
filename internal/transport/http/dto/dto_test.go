package dto

import (
	"encoding/json"
	"testing"
	"time"

	"gallery_keeper/internal/domain/apperr"
	"gallery_keeper/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-07-13")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 13, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2024-07-13T18:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 13, 16, 30, 0, 0, time.UTC), d)

	_, err = ParseDate("13.07.2024")
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestUpdateGalleryRequest_ToPatch(t *testing.T) {
	var req UpdateGalleryRequest
	require.NoError(t, json.Unmarshal([]byte(`{"description":null,"date":"2024-01-02","lightbox_mode":"BLURRED"}`), &req))

	patch, err := req.ToPatch()
	require.NoError(t, err)

	assert.False(t, patch.Title.Set)
	assert.True(t, patch.Description.IsNull())
	require.NotNil(t, patch.Date.Value)
	assert.Equal(t, 2024, patch.Date.Value.Year())
	assert.Equal(t, models.Some(models.LightboxBlurred), patch.LightboxMode)
	assert.False(t, patch.SpotifyPlaylistURL.Set)

	var cleared UpdateGalleryRequest
	require.NoError(t, json.Unmarshal([]byte(`{"date":null}`), &cleared))
	patch, err = cleared.ToPatch()
	require.NoError(t, err)
	assert.True(t, patch.Date.IsNull())

	var bad UpdateGalleryRequest
	require.NoError(t, json.Unmarshal([]byte(`{"date":"yesterday"}`), &bad))
	_, err = bad.ToPatch()
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestCreateGalleryRequest_ToModel(t *testing.T) {
	date := "2023-05-20"
	g, err := CreateGalleryRequest{Title: "Prom", Date: &date, Status: "PUBLIC"}.ToModel()
	require.NoError(t, err)

	assert.Equal(t, "Prom", g.Title)
	assert.Equal(t, models.StatusPublic, g.Status)
	require.NotNil(t, g.Date)
	assert.Equal(t, time.May, g.Date.Month())
}
