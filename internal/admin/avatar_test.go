package admin

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
	"github.com/ThanhLuuv/user-management-backend/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct{}

func (fakePresigner) PresignUpload(_ context.Context, actorID string) (*services.AvatarUpload, error) {
	return &services.AvatarUpload{Key: "avatars/" + actorID + "/k", URL: "http://s3/put", ExpiresAt: time.Now().Add(time.Minute)}, nil
}

type fakeUpdater struct {
	actorID, targetID string
	in                services.UpdateUserInput
}

func (f *fakeUpdater) Update(_ context.Context, actorID, targetID string, in services.UpdateUserInput) (*services.UserView, error) {
	f.actorID, f.targetID, f.in = actorID, targetID, in
	return &services.UserView{}, nil
}

func findAlice(_ context.Context, email string) (*models.Account, error) {
	if email != "alice@x.com" {
		return nil, common.ErrorNotFound
	}
	return &models.Account{ID: "acc-1", Email: email}, nil
}

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "avatar.png")
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestSetAvatar(t *testing.T) {
	var gotURL, gotCT string
	orig := uploadAvatar
	t.Cleanup(func() { uploadAvatar = orig })
	uploadAvatar = func(_ context.Context, _ *http.Client, url, contentType string, _ []byte) error {
		gotURL, gotCT = url, contentType
		return nil
	}

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	var out bytes.Buffer
	u := &fakeUpdater{}

	err := NewApp(strings.NewReader(""), &out).SetAvatar(context.Background(), findAlice, fakePresigner{}, u, "alice@x.com", writeTemp(t, png))
	require.NoError(t, err)

	assert.Equal(t, "http://s3/put", gotURL)
	assert.Equal(t, "image/png", gotCT)
	assert.Equal(t, "acc-1", u.actorID)
	assert.Equal(t, "acc-1", u.targetID)
	key, ok := u.in.Profile.Avatar.Get()
	require.True(t, ok)
	assert.Equal(t, "avatars/acc-1/k", key)
	assert.Contains(t, out.String(), "avatars/acc-1/k")
}

func TestSetAvatar_UnknownAccount(t *testing.T) {
	err := NewApp(strings.NewReader(""), &bytes.Buffer{}).
		SetAvatar(context.Background(), findAlice, fakePresigner{}, &fakeUpdater{}, "bob@x.com", "unused")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSetAvatar_TooLarge(t *testing.T) {
	u := &fakeUpdater{}
	err := NewApp(strings.NewReader(""), &bytes.Buffer{}).
		SetAvatar(context.Background(), findAlice, fakePresigner{}, u, "alice@x.com", writeTemp(t, make([]byte, maxAvatarBytes+1)))
	assert.ErrorContains(t, err, "limit")
	assert.Empty(t, u.actorID)
}
