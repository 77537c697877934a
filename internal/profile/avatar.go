package profile

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retro-admin/dashboard/internal/gateway"
	"github.com/retro-admin/dashboard/internal/storage"
	"github.com/retro-admin/dashboard/types"
)

const (
	// AvatarSize is the edge of the square thumbnail, in pixels.
	AvatarSize     = 256
	// MaxAvatarBytes bounds the accepted upload.
	MaxAvatarBytes = 5 << 20

	avatarPrefix      = "avatars"
	avatarContentType = "image/jpeg"
	avatarQuality     = 85
)

var (
	ErrInvalidImage  = errors.New("arquivo não é uma imagem válida")
	ErrImageTooLarge = errors.New("imagem excede 5MB")
)

// AvatarService turns uploaded images into square JPEG thumbnails and stores
// them. Without object storage the thumbnail is kept inline as a data URL.
type AvatarService struct {
	storage *storage.Storage
	logger  *zap.Logger
}

// NewAvatarService builds the service. store may be nil.
func NewAvatarService(store *storage.Storage, logger *zap.Logger) *AvatarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvatarService{storage: store, logger: logger}
}

// Upload thumbnails r, stores it and records the resulting URL on the user's profile.
func (s *AvatarService) Upload(ctx context.Context, profiles gateway.ProfileStore, userID string, r io.Reader) (string, error) {
	thumbnail, err := s.thumbnail(r)
	if err != nil {
		return "", err
	}

	url, err := s.store(ctx, userID, thumbnail)
	if err != nil {
		s.logger.Error("store avatar", zap.String("user_id", userID), zap.Error(err))
		return "", &gateway.StoreError{Op: gateway.OpUploadAvatar, Err: err}
	}

	if err := profiles.UpsertProfile(ctx, userID, types.ProfilePatch{AvatarURL: &url}); err != nil {
		s.logger.Error("record avatar", zap.String("user_id", userID), zap.Error(err))
		return "", asStoreError(gateway.OpUploadAvatar, err)
	}
	return url, nil
}

// Open returns the stored avatar at urlPath ("/avatars/...").
func (s *AvatarService) Open(ctx context.Context, urlPath string) (io.ReadCloser, string, error) {
	key, ok := s.objectKey(urlPath)
	if !ok {
		return nil, "", storage.ErrObjectNotFound
	}
	rc, err := s.storage.Get(ctx, key)
	if err != nil {
		return nil, "", err
	}
	return rc, avatarContentType, nil
}

// Remove deletes an avatar userID stored earlier. Inline data URLs and keys
// outside avatars/<userID>/ are ignored.
func (s *AvatarService) Remove(ctx context.Context, userID, urlPath string) error {
	key, ok := s.objectKey(urlPath)
	if !ok || userID == "" || !strings.HasPrefix(key, path.Join(avatarPrefix, userID)+"/") {
		return nil
	}
	return s.storage.Delete(ctx, key)
}

func (s *AvatarService) objectKey(urlPath string) (string, bool) {
	if s.storage == nil || !strings.HasPrefix(urlPath, "/") {
		return "", false
	}
	key := strings.TrimPrefix(path.Clean(urlPath), "/")
	if !strings.HasPrefix(key, avatarPrefix+"/") {
		return "", false
	}
	return key, true
}

func (s *AvatarService) thumbnail(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxAvatarBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	if len(data) > MaxAvatarBytes {
		return nil, ErrImageTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	img = imaging.Fill(img, AvatarSize, AvatarSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(avatarQuality)); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *AvatarService) store(ctx context.Context, userID string, thumbnail []byte) (string, error) {
	if s.storage == nil {
		return "data:" + avatarContentType + ";base64," + base64.StdEncoding.EncodeToString(thumbnail), nil
	}

	key := path.Join(avatarPrefix, userID, uuid.NewString()+".jpg")
	if err := s.storage.Put(ctx, key, bytes.NewReader(thumbnail), int64(len(thumbnail)), avatarContentType); err != nil {
		return "", err
	}
	return "/" + key, nil
}
