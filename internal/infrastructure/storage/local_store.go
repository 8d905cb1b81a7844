package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnknownBucket is returned for a bucket that was not configured.
	ErrUnknownBucket = errors.New("unknown bucket")
	// ErrInvalidPath is returned for empty, absolute or escaping object paths.
	ErrInvalidPath = errors.New("invalid object path")
	// ErrNotPublic is returned when a public URL is requested for a private bucket.
	ErrNotPublic = errors.New("bucket is not public")
	// ErrObjectNotFound is returned when the object does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidSignature is returned for tampered or expired signed URLs.
	ErrInvalidSignature = errors.New("invalid or expired signature")
	// ErrTooLarge is returned when an upload exceeds the byte limit.
	ErrTooLarge = errors.New("object too large")
)

// Bucket describes one storage bucket.
type Bucket struct {
	Name   string
	Public bool
}

// LocalStore keeps objects on the local filesystem.
//
// Structure:
//
//	{Root}/
//	  {bucket}/
//	    {object path}
type LocalStore struct {
	root    string
	baseURL string
	secret  []byte
	buckets map[string]Bucket
	now     func() time.Time
}

// signedAudience scopes signed URL tokens so no other token signed with the
// same secret is accepted.
const signedAudience = "storage"

// signedClaims is the payload of a signed object URL.
type signedClaims struct {
	Bucket string `json:"b"`
	Path   string `json:"p"`
	jwt.RegisteredClaims
}

// NewLocalStore creates the bucket directories under root.
func NewLocalStore(root, baseURL, secret string, buckets ...Bucket) (*LocalStore, error) {
	s := &LocalStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secret),
		buckets: make(map[string]Bucket, len(buckets)),
		now:     time.Now,
	}
	for _, b := range buckets {
		if err := os.MkdirAll(filepath.Join(root, b.Name), 0o755); err != nil {
			return nil, fmt.Errorf("creating bucket %s: %w", b.Name, err)
		}
		s.buckets[b.Name] = b
	}
	return s, nil
}

// IsPublic reports whether bucket serves objects without a signature.
func (s *LocalStore) IsPublic(bucket string) bool {
	return s.buckets[bucket].Public
}

// CleanPath normalizes an object path and rejects anything that would
// leave the bucket.
func CleanPath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" || strings.HasPrefix(p, "/") {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

func (s *LocalStore) objectPath(bucket, objectPath string) (string, string, error) {
	if _, ok := s.buckets[bucket]; !ok {
		return "", "", ErrUnknownBucket
	}
	cleaned, err := CleanPath(objectPath)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(s.root, bucket, filepath.FromSlash(cleaned)), cleaned, nil
}

// Put writes r to bucket/objectPath, replacing any existing object, and
// returns the cleaned path and number of bytes written. At most limit bytes
// are accepted when limit > 0.
func (s *LocalStore) Put(ctx context.Context, bucket, objectPath string, r io.Reader, limit int64) (string, int64, error) {
	full, cleaned, err := s.objectPath(bucket, objectPath)
	if err != nil {
		return "", 0, err
	}
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, fmt.Errorf("creating object directory: %w", err)
	}

	// Write to a temp file and rename so readers never see a partial object.
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", 0, fmt.Errorf("writing object: %w", err)
	}
	if limit > 0 && n > limit {
		return "", 0, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, limit)
	}

	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", 0, fmt.Errorf("committing object: %w", err)
	}
	return cleaned, n, nil
}

// Open returns a reader for bucket/objectPath.
func (s *LocalStore) Open(bucket, objectPath string) (*os.File, error) {
	full, _, err := s.objectPath(bucket, objectPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("opening object: %w", err)
	}
	return f, nil
}

// Remove deletes an object. Missing objects are not an error.
func (s *LocalStore) Remove(bucket, objectPath string) error {
	full, _, err := s.objectPath(bucket, objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing object: %w", err)
	}
	return nil
}

// PublicURL returns the unauthenticated URL of an object in a public bucket.
func (s *LocalStore) PublicURL(bucket, objectPath string) (string, error) {
	b, ok := s.buckets[bucket]
	if !ok {
		return "", ErrUnknownBucket
	}
	if !b.Public {
		return "", ErrNotPublic
	}
	cleaned, err := CleanPath(objectPath)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/files/%s/%s", s.baseURL, bucket, escapePath(cleaned)), nil
}

// SignedURL returns a URL granting read access to an object until ttl passes.
func (s *LocalStore) SignedURL(bucket, objectPath string, ttl time.Duration) (string, time.Time, error) {
	if _, ok := s.buckets[bucket]; !ok {
		return "", time.Time{}, ErrUnknownBucket
	}
	cleaned, err := CleanPath(objectPath)
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.now()
	expires := now.Add(ttl)
	claims := signedClaims{
		Bucket: bucket,
		Path:   cleaned,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{signedAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing url: %w", err)
	}
	return fmt.Sprintf("%s/files/signed/%s", s.baseURL, token), expires, nil
}

// VerifySignedToken returns the bucket and path a signed URL token grants.
func (s *LocalStore) VerifySignedToken(token string) (string, string, error) {
	var claims signedClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithAudience(signedAudience), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", "", ErrInvalidSignature
	}
	if _, ok := s.buckets[claims.Bucket]; !ok {
		return "", "", ErrInvalidSignature
	}
	return claims.Bucket, claims.Path, nil
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}
