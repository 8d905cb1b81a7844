package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), "http://localhost:3001/", "secret",
		Bucket{Name: "avatars", Public: true},
		Bucket{Name: "resumes", Public: false},
	)
	require.NoError(t, err)
	return s
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"u1/avatar.png", "u1/avatar.png", false},
		{"u1//nested/./a.pdf", "u1/nested/a.pdf", false},
		{"", "", true},
		{"/etc/passwd", "", true},
		{"../secrets", "", true},
		{"u1/../../x", "", true},
		{"u1\\..\\x", "", true},
		{".", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := CleanPath(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPutAndOpen_Upserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, n, err := s.Put(ctx, "avatars", "u1/avatar.png", strings.NewReader("first"), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	p, _, err := s.Put(ctx, "avatars", "u1/avatar.png", strings.NewReader("second"), 0)
	require.NoError(t, err)
	assert.Equal(t, "u1/avatar.png", p)

	f, err := s.Open("avatars", "u1/avatar.png")
	require.NoError(t, err)
	defer f.Close()
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))
}

func TestPut_Limits(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.Put(context.Background(), "resumes", "u1/cv.pdf", strings.NewReader("0123456789"), 4)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = s.Open("resumes", "u1/cv.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, _, err = s.Put(context.Background(), "nope", "x", strings.NewReader("x"), 0)
	assert.ErrorIs(t, err, ErrUnknownBucket)
}

func TestPublicURL(t *testing.T) {
	s := newTestStore(t)

	u, err := s.PublicURL("avatars", "u1/my avatar.png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3001/files/avatars/u1/my%20avatar.png", u)

	_, err = s.PublicURL("resumes", "u1/cv.pdf")
	assert.ErrorIs(t, err, ErrNotPublic)
}

func TestSignedURL_RoundTripAndExpiry(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	u, expires, err := s.SignedURL("resumes", "u1/j1-1700000000000.pdf", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Hour), expires)
	require.True(t, strings.HasPrefix(u, "http://localhost:3001/files/signed/"))
	token := strings.TrimPrefix(u, "http://localhost:3001/files/signed/")

	bucket, p, err := s.VerifySignedToken(token)
	require.NoError(t, err)
	assert.Equal(t, "resumes", bucket)
	assert.Equal(t, "u1/j1-1700000000000.pdf", p)

	s.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, _, err = s.VerifySignedToken(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, _, err = s.VerifySignedToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifySignedToken_RequiresStorageAudience(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name     string
		audience jwt.ClaimStrings
	}{
		{"no audience", nil},
		{"session audience", jwt.ClaimStrings{"session"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			claims := signedClaims{
				Bucket: "resumes",
				Path:   "u1/cv.pdf",
				RegisteredClaims: jwt.RegisteredClaims{
					Audience:  tc.audience,
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
			}
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
			require.NoError(t, err)

			_, _, err = s.VerifySignedToken(token)
			assert.ErrorIs(t, err, ErrInvalidSignature)
		})
	}
}
