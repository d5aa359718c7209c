package lock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/meeplenest/meeplenest/internal/config"
	rerr "github.com/meeplenest/meeplenest/internal/errors"
	"github.com/meeplenest/meeplenest/internal/lock"
)

const (
	testLockKey  = "campaign-1"
	testRedisKey = "roster:lock:campaign-1"
	testTTL      = 5 * time.Second

	// uuid v4 token minted per Acquire
	tokenPattern = `[0-9a-f-]{36}`
)

type redisLockerSuite struct {
	suite.Suite
	mock   redismock.ClientMock
	locker lock.Locker
	ctx    context.Context
}

func (s *redisLockerSuite) SetupTest() {
	client, mock := redismock.NewClientMock()
	s.mock = mock
	s.locker = lock.NewRedisLocker(&lock.RedisLockerConfig{
		Client:  client,
		TTL:     testTTL,
		Retries: 2,
	})
	s.ctx = context.Background()
}

func (s *redisLockerSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *redisLockerSuite) TestAcquireAndRelease() {
	s.mock.Regexp().ExpectSetNX(testRedisKey, tokenPattern, testTTL).SetVal(true)
	s.mock.Regexp().ExpectEval(`redis\.call`, []string{testRedisKey}, tokenPattern).SetVal(int64(1))

	release, err := s.locker.Acquire(s.ctx, testLockKey)
	s.Require().NoError(err)
	s.Require().NotNil(release)

	release()
}

func (s *redisLockerSuite) TestAcquireRetriesWhileHeld() {
	s.mock.Regexp().ExpectSetNX(testRedisKey, tokenPattern, testTTL).SetVal(false)
	s.mock.Regexp().ExpectSetNX(testRedisKey, tokenPattern, testTTL).SetVal(true)
	s.mock.Regexp().ExpectEval(`redis\.call`, []string{testRedisKey}, tokenPattern).SetVal(int64(1))

	release, err := s.locker.Acquire(s.ctx, testLockKey)
	s.Require().NoError(err)

	release()
}

func (s *redisLockerSuite) TestAcquireGivesUpWhenHeld() {
	s.mock.Regexp().ExpectSetNX(testRedisKey, tokenPattern, testTTL).SetVal(false)
	s.mock.Regexp().ExpectSetNX(testRedisKey, tokenPattern, testTTL).SetVal(false)

	release, err := s.locker.Acquire(s.ctx, testLockKey)
	s.Require().Error(err)
	s.Nil(release)
	s.True(rerr.IsStore(err))
}

func (s *redisLockerSuite) TestAcquireStopsOnRedisError() {
	s.mock.Regexp().ExpectSetNX(testRedisKey, tokenPattern, testTTL).SetErr(errors.New("connection refused"))

	release, err := s.locker.Acquire(s.ctx, testLockKey)
	s.Require().Error(err)
	s.Nil(release)
	s.True(rerr.IsStore(err))
}

func (s *redisLockerSuite) TestReleaseFailureIsSwallowed() {
	s.mock.Regexp().ExpectSetNX(testRedisKey, tokenPattern, testTTL).SetVal(true)
	s.mock.Regexp().ExpectEval(`redis\.call`, []string{testRedisKey}, tokenPattern).SetErr(errors.New("connection refused"))

	release, err := s.locker.Acquire(s.ctx, testLockKey)
	s.Require().NoError(err)

	// Best effort: the TTL covers an unreleased lock.
	release()
}

func TestRedisLockerSuite(t *testing.T) {
	suite.Run(t, new(redisLockerSuite))
}

func TestNewRedisLockerFromConfig(t *testing.T) {
	t.Run("empty URL disables the lock", func(t *testing.T) {
		locker, err := lock.NewRedisLockerFromConfig(&config.RedisConfig{})
		require.NoError(t, err)
		assert.Nil(t, locker)
	})

	t.Run("nil config disables the lock", func(t *testing.T) {
		locker, err := lock.NewRedisLockerFromConfig(nil)
		require.NoError(t, err)
		assert.Nil(t, locker)
	})

	t.Run("malformed URL is rejected", func(t *testing.T) {
		_, err := lock.NewRedisLockerFromConfig(&config.RedisConfig{URL: "localhost:6379"})
		require.Error(t, err)
		assert.Equal(t, rerr.CodeInvalidArgument, rerr.GetCode(err))
	})

	t.Run("valid URL builds a locker", func(t *testing.T) {
		locker, err := lock.NewRedisLockerFromConfig(&config.RedisConfig{
			URL:         "redis://localhost:6379/0",
			LockTTL:     10 * time.Second,
			LockRetries: 3,
		})
		require.NoError(t, err)
		assert.NotNil(t, locker)
	})
}
