//go:build integration

package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"passport-status/pkg/testutil/containers"
)

type RedisDeduperSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	deduper *RedisDeduper
}

func TestRedisDeduperSuite(t *testing.T) {
	suite.Run(t, new(RedisDeduperSuite))
}

func (s *RedisDeduperSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.deduper = NewRedisDeduper(s.redis.Client)
}

func (s *RedisDeduperSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisDeduperSuite) TestClaimIsExclusive() {
	ctx := context.Background()

	ok, err := s.deduper.Claim(ctx, "r1", time.Minute)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.deduper.Claim(ctx, "r1", time.Minute)
	s.Require().NoError(err)
	s.False(ok)

	ttl, err := s.redis.Client.TTL(ctx, redisKeyPrefix+"r1").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)
}

func (s *RedisDeduperSuite) TestReleaseAllowsReclaim() {
	ctx := context.Background()

	_, err := s.deduper.Claim(ctx, "r1", time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(s.deduper.Release(ctx, "r1"))

	ok, err := s.deduper.Claim(ctx, "r1", time.Minute)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *RedisDeduperSuite) TestClaimExpires() {
	ctx := context.Background()

	_, err := s.deduper.Claim(ctx, "r1", 100*time.Millisecond)
	s.Require().NoError(err)

	s.Eventually(func() bool {
		ok, err := s.deduper.Claim(ctx, "r1", time.Minute)
		return err == nil && ok
	}, 3*time.Second, 50*time.Millisecond)
}
