package media_storage

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/skilldeck/internal/config"
	"github.com/khoahotran/skilldeck/pkg/apperror"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

func TestUpload_MissingConfig(t *testing.T) {
	up := NewCloudinaryAdapter(config.Config{}, logger.NewNopLogger())

	_, err := up.Upload(context.Background(), strings.NewReader("png"), "me.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrUploadRejected)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Image upload is not configured", appErr.Message)
}

func TestUploadURL(t *testing.T) {
	url, err := uploadURL("https://res.cloudinary.com/demo/image/upload/me.png", "")
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/me.png", url)

	_, err = uploadURL("", "Upload preset not found")
	require.ErrorIs(t, err, apperror.ErrUploadRejected)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Upload preset not found", appErr.Message)

	_, err = uploadURL("", "")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Failed to upload image", appErr.Message)
}

func TestPublicID_DistinctPerUpload(t *testing.T) {
	first := publicID("/tmp/avatar.png")
	second := publicID("avatar.jpg")

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(first, "avatar-"), first)
	assert.True(t, strings.HasPrefix(second, "avatar-"), second)
	assert.NotEqual(t, publicID("avatar.png"), publicID("avatar.png"))
}

func TestPublicID_NoUsableBaseName(t *testing.T) {
	for _, name := range []string{"", ".", "/", "..png"} {
		id := publicID(name)
		_, err := uuid.Parse(id)
		assert.NoError(t, err, "name %q gave %q", name, id)
	}
}
