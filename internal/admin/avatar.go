package admin

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/ThanhLuuv/user-management-backend/internal/netx"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
	"github.com/ThanhLuuv/user-management-backend/internal/server/services"
)

// maxAvatarBytes bounds files accepted by SetAvatar.
const maxAvatarBytes = 5 << 20

// AccountFinder looks an account up by email.
type AccountFinder func(ctx context.Context, email string) (*models.Account, error)

// AvatarPresigner is satisfied by *services.AvatarService.
type AvatarPresigner interface {
	PresignUpload(ctx context.Context, actorID string) (*services.AvatarUpload, error)
}

// ProfileUpdater is satisfied by *services.UserService.
type ProfileUpdater interface {
	Update(ctx context.Context, actorID, targetID string, in services.UpdateUserInput) (*services.UserView, error)
}

// uploadAvatar is a test seam for netx.PutPresigned.
var uploadAvatar = netx.PutPresigned

// SetAvatar uploads the image at path as the avatar of the account with
// email, then records the object key on its profile. The update is made
// as the account itself, so it passes the same policy as a self update.
func (a *App) SetAvatar(ctx context.Context, find AccountFinder, avatars AvatarPresigner, users ProfileUpdater, email, path string) error {
	acc, err := find(ctx, email)
	if err != nil {
		return fmt.Errorf("find account %s: %w", email, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(data) > maxAvatarBytes {
		return fmt.Errorf("avatar is %d bytes, limit is %d", len(data), maxAvatarBytes)
	}

	up, err := avatars.PresignUpload(ctx, acc.ID)
	if err != nil {
		return err
	}
	if err := uploadAvatar(ctx, http.DefaultClient, up.URL, http.DetectContentType(data), data); err != nil {
		return err
	}

	if _, err := users.Update(ctx, acc.ID, acc.ID, services.UpdateUserInput{
		Profile: models.ProfilePatch{Avatar: models.Some(up.Key)},
	}); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Avatar of %s set to %s\n", acc.Email, up.Key)
	return nil
}
