package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/lobbychat/internal/store"
	"github.com/vovakirdan/lobbychat/internal/store/sqlite"
)

func newTestService(t *testing.T) (*Service, *sqlite.SQLiteStore) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, st.CreateUser(context.Background(), &store.User{
		Username:  "alice",
		Avatar:    "a.png",
		SessionID: "session_alice",
		JoinedAt:  now,
		LastSeen:  now,
		Status:    "Available",
	}))
	return New(st), st
}

func TestCheck(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		username  string
		sessionID string
		want      Status
	}{
		{name: "known session", sessionID: "session_alice", want: StatusExisting},
		{name: "session wins over username", username: "bob", sessionID: "session_alice", want: StatusExisting},
		{name: "unknown session falls back to username", username: "alice", sessionID: "session_gone", want: StatusTaken},
		{name: "taken username", username: "alice", want: StatusTaken},
		{name: "free username", username: "bob", want: StatusAvailable},
		{name: "nothing supplied", want: StatusAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Check(ctx, tt.username, tt.sessionID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Status)
			if tt.want == StatusExisting {
				require.NotNil(t, res.User)
				assert.Equal(t, "alice", res.User.Username)
			} else {
				assert.Nil(t, res.User)
			}
		})
	}
}

func TestCheckBanned(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, st.CreateBan(ctx, &store.Ban{Username: "alice", BannedBy: "admin", BannedAt: now}))
	require.NoError(t, st.CreateBan(ctx, &store.Ban{Username: "eve", BannedBy: "admin", BannedAt: now}))

	res, err := svc.Check(ctx, "", "session_alice")
	require.NoError(t, err)
	assert.Equal(t, StatusBanned, res.Status)
	assert.Nil(t, res.User)

	res, err = svc.Check(ctx, "eve", "")
	require.NoError(t, err)
	assert.Equal(t, StatusBanned, res.Status)
}

func TestCheckStoreFailure(t *testing.T) {
	svc, st := newTestService(t)
	require.NoError(t, st.Close())

	_, err := svc.Check(context.Background(), "alice", "")
	assert.Error(t, err)
}
