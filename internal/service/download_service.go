package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/storage"
)

// DownloadService issues and redeems signed, expiring links to stored documents.
// Tokens are fernet messages, so they are encrypted and authenticated and carry
// their own issue time.
type DownloadService struct {
	keys  []*fernet.Key
	ttl   time.Duration
	store storage.Store
}

type downloadClaims struct {
	UserID      string `json:"u"`
	Key         string `json:"k"`
	Filename    string `json:"f"`
	ContentType string `json:"c"`
}

// NewDownloadService creates a DownloadService from a base64 fernet key.
// An empty key generates a process-local key, so links do not survive restarts.
func NewDownloadService(encodedKey string, ttl time.Duration, store storage.Store) (*DownloadService, error) {
	var key fernet.Key
	if encodedKey == "" {
		if err := key.Generate(); err != nil {
			return nil, fmt.Errorf("failed to generate download key: %w", err)
		}
	} else {
		decoded, err := fernet.DecodeKey(encodedKey)
		if err != nil {
			return nil, fmt.Errorf("invalid download key: %w", err)
		}
		key = *decoded
	}
	return &DownloadService{keys: []*fernet.Key{&key}, ttl: ttl, store: store}, nil
}

// TTL returns how long issued tokens stay valid.
func (s *DownloadService) TTL() time.Duration {
	return s.ttl
}

// Issue returns a token granting download of the object at key.
func (s *DownloadService) Issue(userID, key, filename, contentType string) (string, error) {
	payload, err := json.Marshal(downloadClaims{UserID: userID, Key: key, Filename: filename, ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to encode download token: %w", err)
	}
	tok, err := fernet.EncryptAndSign(payload, s.keys[0])
	if err != nil {
		return "", fmt.Errorf("failed to sign download token: %w", err)
	}
	return string(tok), nil
}

// Resolve verifies token and downloads the object it grants.
// Tampered, foreign or expired tokens return apperrors.ErrInvalidDownloadToken.
func (s *DownloadService) Resolve(ctx context.Context, token string) (*StoredFile, error) {
	payload := fernet.VerifyAndDecrypt([]byte(token), s.ttl, s.keys)
	if payload == nil {
		return nil, apperrors.ErrInvalidDownloadToken
	}
	var claims downloadClaims
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Key == "" {
		return nil, apperrors.ErrInvalidDownloadToken
	}

	data, err := s.store.Download(ctx, claims.Key)
	if err != nil {
		return nil, err
	}
	return &StoredFile{Filename: claims.Filename, ContentType: claims.ContentType, Data: data}, nil
}
