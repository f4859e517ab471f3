package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
)

const signatureParam = "sig"

// LocalStore serves product files from a directory and issues HS256-signed
// retrieval URLs for them. A URL is only valid for the key it was minted for.
type LocalStore struct {
	root       string
	baseURL    string
	signingKey []byte
	now        func() time.Time
}

func NewLocalStore(root, appURL, signingKey string) (*LocalStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("files directory is required")
	}
	if strings.TrimSpace(signingKey) == "" {
		return nil, errors.New("files signing key is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve files directory: %w", err)
	}
	return &LocalStore{
		root:       abs,
		baseURL:    strings.TrimRight(appURL, "/"),
		signingKey: []byte(signingKey),
		now:        time.Now,
	}, nil
}

func (s *LocalStore) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		return "", fmt.Errorf("%w: signed url ttl must be positive", domain.ErrInvalidInput)
	}

	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   key,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	sig, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign url: %w", err)
	}

	q := url.Values{}
	q.Set(signatureParam, sig)
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/files/" + strings.Join(segments, "/") + "?" + q.Encode(), nil
}

// Verify checks that sig was minted by this store for key and has not expired.
func (s *LocalStore) Verify(key, sig string) error {
	if sig == "" {
		return domain.ErrSignatureInvalid
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(sig, &claims, func(token *jwt.Token) (any, error) {
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(key),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSignatureInvalid, err)
	}
	return nil
}

// Open returns the stored object for key. Missing objects map to domain.ErrNotFound.
func (s *LocalStore) Open(key string) (*os.File, os.FileInfo, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, nil, err
	}
	full := filepath.Join(s.root, filepath.FromSlash(key))
	if !strings.HasPrefix(full, s.root+string(os.PathSeparator)) {
		return nil, nil, fmt.Errorf("%w: key escapes files directory", domain.ErrInvalidInput)
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, nil, domain.ErrNotFound
	}
	return f, info, nil
}

func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, `\`) {
		return "", fmt.Errorf("%w: invalid object key", domain.ErrInvalidInput)
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != key {
		return "", fmt.Errorf("%w: invalid object key", domain.ErrInvalidInput)
	}
	return cleaned, nil
}
