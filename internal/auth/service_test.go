package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

func TestService_Login(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	authService := NewService(time.Hour, db)
	require.NotNil(t, authService)
	assert.NotNil(t, authService.redisClient)
	assert.Equal(t, time.Hour, authService.ttl)

	testToken := "test_token"
	authService.RandStringFunc = func(s int) (string, error) {
		return testToken, nil
	}

	now := time.Now()
	sessionKey := sessionKeyPrefix + testToken
	sessionVal := fmt.Sprintf("%d|%d", 42, now.Unix())
	mock.ExpectSet(sessionKey, sessionVal, 0).SetVal(sessionVal)
	mock.ExpectSAdd(tokensSetKey, testToken).SetVal(1)

	token, err := authService.Login(context.Background(), 42, now)
	require.NoError(t, err)
	assert.Equal(t, testToken, token)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Logout(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	authService := NewService(time.Hour, db)

	testToken := "test_token"
	now := time.Now()
	sessionKey := sessionKeyPrefix + testToken
	sessionVal := fmt.Sprintf("%d|%d", 42, now.Unix())
	mock.ExpectGet(sessionKey).SetVal(sessionVal)
	mock.ExpectDel(sessionKey).SetVal(1)
	mock.ExpectSRem(tokensSetKey, testToken).SetVal(1)

	loggedOut, err := authService.Logout(context.Background(), testToken)
	require.NoError(t, err)
	assert.True(t, loggedOut)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestService_UserID(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	authService := NewService(time.Hour, db)

	testToken := "test_token"
	sessionKey := sessionKeyPrefix + testToken
	mock.ExpectGet(sessionKey).SetVal(fmt.Sprintf("7|%d", time.Now().Unix()))

	userID, err := authService.UserID(context.Background(), testToken)
	require.NoError(t, err)
	assert.Equal(t, 7, userID)
}

func TestService_UserID_malformed(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	authService := NewService(time.Hour, db)

	testToken := "test_token"
	sessionKey := sessionKeyPrefix + testToken
	mock.ExpectGet(sessionKey).SetVal("not-a-session")

	_, err := authService.UserID(context.Background(), testToken)
	require.Error(t, err)
}
