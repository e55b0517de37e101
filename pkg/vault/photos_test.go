package vault

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotoSettingDefaultsOff(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	enabled, err := s.PhotoSetting(id)
	require.NoError(t, err)
	assert.False(t, enabled)

	enabled, err = s.PhotoSettingForUsername("alice")
	require.NoError(t, err)
	assert.False(t, enabled)

	_, err = s.PhotoSettingForUsername("nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSaveFailedLoginPhotoDroppedWhenDisabled(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	photo := base64.StdEncoding.EncodeToString([]byte("jpeg bytes"))
	require.NoError(t, s.SaveFailedLoginPhoto("alice", photo, "alice"))

	photos, err := s.FailedLoginPhotos(id)
	require.NoError(t, err)
	assert.Empty(t, photos)
}

func TestSaveFailedLoginPhotoRoundTrip(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)
	require.NoError(t, s.UpdatePhotoSetting(id, true))

	photo := base64.StdEncoding.EncodeToString([]byte("jpeg bytes"))
	require.NoError(t, s.SaveFailedLoginPhoto("alice", photo, "alice"))

	photos, err := s.FailedLoginPhotos(id)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, photo, photos[0].Photo)
	assert.Equal(t, "alice", photos[0].UsernameAttempt)

	// Ciphertext in the table differs from the capture.
	var stored []byte
	err = s.db.QueryRow(
		"SELECT encrypted_photo FROM failed_login_photos WHERE user_id = ?", id,
	).Scan(&stored)
	require.NoError(t, err)
	assert.NotEqual(t, []byte("jpeg bytes"), stored)
}

func TestSaveFailedLoginPhotoValidation(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)
	require.NoError(t, s.UpdatePhotoSetting(id, true))

	assert.Error(t, s.SaveFailedLoginPhoto("alice", "not-base64!", "alice"))
	assert.ErrorIs(t, s.SaveFailedLoginPhoto("nobody", "", "nobody"), ErrUserNotFound)
}

func TestFailedLoginPhotosHiddenDuringDuress(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)
	require.NoError(t, s.UpdatePhotoSetting(id, true))
	_, err = s.AddDuressCredential(id, "Decoy9!")
	require.NoError(t, err)

	photo := base64.StdEncoding.EncodeToString([]byte("jpeg bytes"))
	require.NoError(t, s.SaveFailedLoginPhoto("alice", photo, "intruder"))

	_, err = s.Login("alice", "Decoy9!")
	require.NoError(t, err)

	photos, err := s.FailedLoginPhotos(id)
	require.NoError(t, err)
	assert.Empty(t, photos)

	// Visible again once a real session takes over.
	_, err = s.Login("alice", "correct horse")
	require.NoError(t, err)

	photos, err = s.FailedLoginPhotos(id)
	require.NoError(t, err)
	assert.Len(t, photos, 1)
}

func TestDeleteFailedLoginPhoto(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)
	require.NoError(t, s.UpdatePhotoSetting(id, true))

	photo := base64.StdEncoding.EncodeToString([]byte("jpeg bytes"))
	require.NoError(t, s.SaveFailedLoginPhoto("alice", photo, "alice"))

	photos, err := s.FailedLoginPhotos(id)
	require.NoError(t, err)
	require.Len(t, photos, 1)

	require.NoError(t, s.DeleteFailedLoginPhoto(id, photos[0].ID))
	assert.ErrorIs(t, s.DeleteFailedLoginPhoto(id, photos[0].ID), ErrPhotoNotFound)
}

func TestUpdatePhotoSettingUpsert(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	require.NoError(t, s.UpdatePhotoSetting(id, true))
	enabled, err := s.PhotoSetting(id)
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, s.UpdatePhotoSetting(id, false))
	enabled, err = s.PhotoSetting(id)
	require.NoError(t, err)
	assert.False(t, enabled)
}
