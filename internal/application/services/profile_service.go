package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/internal/infrastructure/persistence"
	"github.com/sdmtech/sdmcrm/pkg/constants"
	"github.com/sdmtech/sdmcrm/pkg/errors"
)

// ProfileInput carries editable profile fields; nil leaves a field unchanged.
type ProfileInput struct {
	FullName   *string `json:"full_name"`
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
	Position   *string `json:"position"`
}

func (in ProfileInput) toUpdate() (persistence.ProfileUpdate, error) {
	upd := persistence.ProfileUpdate{
		Phone:      trimPtr(in.Phone),
		Department: trimPtr(in.Department),
		Position:   trimPtr(in.Position),
	}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return upd, errors.NewValidationError("full_name", "Full name is required")
		}
		upd.FullName = &name
	}
	return upd, nil
}

// ProfileService manages the caller's own profile.
type ProfileService struct {
	profiles ProfileStore
	storage  *StorageService
	now      func() time.Time
}

// NewProfileService creates a ProfileService.
func NewProfileService(profiles ProfileStore, storage *StorageService) *ProfileService {
	return &ProfileService{profiles: profiles, storage: storage, now: time.Now}
}

// Get returns the profile of userID.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if p == nil {
		return nil, errors.NewNotFoundError("Profile", userID)
	}
	return p, nil
}

// Update edits the profile of userID.
func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileInput) (*models.Profile, error) {
	upd, err := in.toUpdate()
	if err != nil {
		return nil, err
	}
	ok, err := s.profiles.Update(ctx, userID, upd, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFoundError("Profile", userID)
	}
	return s.Get(ctx, userID)
}

// UploadAvatar stores an image at avatars/<user>/avatar.<ext> and points the
// profile at its public URL. Only raster images whose content matches their
// extension are accepted; the declared content type is ignored.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID string, u *Upload) (*models.Profile, error) {
	ext := u.Ext()
	want, ok := constants.ImageTypes[ext]
	if !ok {
		return nil, errors.NewValidationError("avatar", "avatar must be a PNG, JPEG, GIF or WebP image")
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(u.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read avatar: %w", err)
	}
	head = head[:n]
	if sniffed := http.DetectContentType(head); sniffed != want {
		return nil, errors.NewValidationError("avatar", "file content does not match its image type")
	}
	u.ContentType = want
	u.Body = io.MultiReader(bytes.NewReader(head), u.Body)

	stored, err := s.storage.Store(ctx, constants.BucketAvatars, fmt.Sprintf("%s/avatar.%s", userID, ext), userID, u)
	if err != nil {
		return nil, err
	}
	url, err := s.storage.PublicURL(constants.BucketAvatars, stored)
	if err != nil {
		return nil, err
	}

	ok, err = s.profiles.Update(ctx, userID, persistence.ProfileUpdate{AvatarURL: &url}, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFoundError("Profile", userID)
	}
	return s.Get(ctx, userID)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
