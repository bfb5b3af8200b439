package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginChecker_IsLogged(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	checker := NewLoginChecker(time.Hour, db)

	t.Run("fresh session", func(t *testing.T) {
		sessionKey := sessionKeyPrefix + "fresh"
		mock.ExpectGet(sessionKey).SetVal(fmt.Sprintf("42|%d", time.Now().Unix()))

		logged, err := checker.IsLogged(context.Background(), "fresh")
		require.NoError(t, err)
		assert.True(t, logged)
	})

	t.Run("expired session", func(t *testing.T) {
		sessionKey := sessionKeyPrefix + "stale"
		staleCreatedAt := time.Now().Add(-2 * time.Hour)
		mock.ExpectGet(sessionKey).SetVal(fmt.Sprintf("42|%d", staleCreatedAt.Unix()))

		logged, err := checker.IsLogged(context.Background(), "stale")
		require.NoError(t, err)
		assert.False(t, logged)
	})

	t.Run("unknown token", func(t *testing.T) {
		sessionKey := sessionKeyPrefix + "nope"
		mock.ExpectGet(sessionKey).RedisNil()

		_, err := checker.IsLogged(context.Background(), "nope")
		require.Error(t, err)
	})
}
