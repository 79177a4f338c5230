package auth_test

import (
	"testing"
	"time"

	"github.com/dom/todo-api/internal/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticator_Authenticate(t *testing.T) {
	codec := newCodec(t, "test-secret")
	authenticator := auth.NewAuthenticator(codec)
	subject := auth.Subject{Email: "a@example.com", UserID: uuid.New()}

	access, err := codec.IssueAccess(subject, t0)
	require.NoError(t, err)
	refresh, err := codec.IssueRefresh(subject, t0)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		at         time.Time
		wantReason auth.Reason
	}{
		{name: "valid bearer", header: "Bearer " + access, at: t0},
		{name: "lowercase scheme", header: "bearer " + access, at: t0},
		{name: "missing header", header: "", at: t0, wantReason: auth.ReasonMissingHeader},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", at: t0, wantReason: auth.ReasonBadScheme},
		{name: "token without scheme", header: access, at: t0, wantReason: auth.ReasonBadScheme},
		{name: "extra parts", header: "Bearer " + access + " extra", at: t0, wantReason: auth.ReasonBadScheme},
		{name: "expired", header: "Bearer " + access, at: t0.Add(31 * time.Minute), wantReason: auth.ReasonExpired},
		{name: "refresh token", header: "Bearer " + refresh, at: t0, wantReason: auth.ReasonWrongKind},
		{name: "garbage token", header: "Bearer garbage", at: t0, wantReason: auth.ReasonMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := authenticator.Authenticate(tt.header, tt.at)
			if tt.wantReason == 0 {
				require.NoError(t, err)
				assert.Equal(t, subject, got)
				return
			}

			assert.ErrorIs(t, err, auth.ErrUnauthorized)

			var authErr *auth.AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.wantReason, authErr.Reason)
			assert.Equal(t, auth.Subject{}, got)
		})
	}
}

func TestAuthenticator_AuthenticateToken(t *testing.T) {
	codec := newCodec(t, "test-secret")
	authenticator := auth.NewAuthenticator(codec)

	access, err := codec.IssueAccess(auth.Subject{Email: "ws@example.com"}, t0)
	require.NoError(t, err)

	got, err := authenticator.AuthenticateToken(access, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "ws@example.com", got.Email)

	_, err = authenticator.AuthenticateToken("", t0)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}
