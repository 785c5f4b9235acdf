package media

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/skilldeck/adapters/persistence/memory"
	profileuc "github.com/khoahotran/skilldeck/internal/application/usecase/profile"
	"github.com/khoahotran/skilldeck/pkg/apperror"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

type stubUploader struct {
	url      string
	err      error
	calls    int
	received string
}

func (u *stubUploader) Upload(_ context.Context, file io.Reader, filename string) (string, error) {
	u.calls++
	b, _ := io.ReadAll(file)
	u.received = filename + ":" + string(b)
	return u.url, u.err
}

func newProfiles(t *testing.T, owner uuid.UUID, withProfile bool) *profileuc.ProfileUseCase {
	t.Helper()
	uc := profileuc.NewProfileUseCase(memory.NewProfileRepo(), nil, nil, logger.NewNopLogger())
	if withProfile {
		_, err := uc.CreateProfile(context.Background(), profileuc.CreateProfileInput{
			OwnerID: owner, FullName: "Ada", Headline: "Engineer", Bio: "b", Username: "ada", IsPublic: true,
		})
		require.NoError(t, err)
	}
	return uc
}

func TestUploadAvatar_StoresURL(t *testing.T) {
	owner := uuid.New()
	profiles := newProfiles(t, owner, true)
	up := &stubUploader{url: "https://res.cloudinary.com/demo/image/upload/ada.png"}
	uc := NewUploadAvatarUseCase(profiles, up, logger.NewNopLogger())

	out, err := uc.Execute(context.Background(), UploadAvatarInput{OwnerID: owner, File: strings.NewReader("png"), Filename: "ada.png"})
	require.NoError(t, err)
	assert.Equal(t, up.url, out.PhotoURL)
	assert.Equal(t, up.url, out.Profile.Profile.PhotoURL)
	assert.Equal(t, "ada.png:png", up.received)
}

func TestUploadAvatar_RejectedLeavesProfile(t *testing.T) {
	owner := uuid.New()
	profiles := newProfiles(t, owner, true)
	up := &stubUploader{err: apperror.NewUploadRejected("Invalid image file", nil)}
	uc := NewUploadAvatarUseCase(profiles, up, logger.NewNopLogger())

	_, err := uc.Execute(context.Background(), UploadAvatarInput{OwnerID: owner, File: strings.NewReader("x"), Filename: "x.txt"})
	require.ErrorIs(t, err, apperror.ErrUploadRejected)

	d, err := profiles.GetOwnProfile(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, d.Profile.PhotoURL)
}

func TestUploadAvatar_NoProfileSkipsUpload(t *testing.T) {
	owner := uuid.New()
	up := &stubUploader{url: "https://example.com/a.png"}
	uc := NewUploadAvatarUseCase(newProfiles(t, owner, false), up, logger.NewNopLogger())

	_, err := uc.Execute(context.Background(), UploadAvatarInput{OwnerID: owner, File: strings.NewReader("png"), Filename: "a.png"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Zero(t, up.calls)
}
