package bucket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	testLimit  = 3
	testWindow = time.Minute
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	clock time.Time
	ctx   context.Context
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.clock = time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
	s.store = NewInMemoryBucketStore()
	s.store.now = func() time.Time { return s.clock }
	s.ctx = context.Background()
}

func (s *InMemoryBucketStoreSuite) TestAllowUpToLimit() {
	for i := range testLimit {
		result, err := s.store.Allow(s.ctx, "k", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit-i-1, result.Remaining)
	}

	result, err := s.store.Allow(s.ctx, "k", testLimit, testWindow)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Equal(60, result.RetryAfter)
	s.Equal(s.clock.Add(testWindow), result.ResetAt)
}

func (s *InMemoryBucketStoreSuite) TestWindowSlides() {
	for range testLimit {
		_, err := s.store.Allow(s.ctx, "k", testLimit, testWindow)
		s.Require().NoError(err)
	}
	s.clock = s.clock.Add(testWindow + time.Second)

	result, err := s.store.Allow(s.ctx, "k", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.Equal(testLimit-1, result.Remaining)
}

func (s *InMemoryBucketStoreSuite) TestKeysAreIndependent() {
	for range testLimit {
		_, err := s.store.Allow(s.ctx, "a", testLimit, testWindow)
		s.Require().NoError(err)
	}
	result, err := s.store.Allow(s.ctx, "b", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *InMemoryBucketStoreSuite) TestReset() {
	for range testLimit {
		_, err := s.store.Allow(s.ctx, "k", testLimit, testWindow)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.store.Reset(s.ctx, "k"))
	result, err := s.store.Allow(s.ctx, "k", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *InMemoryBucketStoreSuite) TestIdleKeysAreSwept() {
	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		_, err := s.store.Allow(s.ctx, ip, testLimit, testWindow)
		s.Require().NoError(err)
	}
	s.Len(s.store.buckets, 3)

	s.clock = s.clock.Add(testWindow + time.Second)
	_, err := s.store.Allow(s.ctx, "10.0.0.9", testLimit, testWindow)
	s.Require().NoError(err)

	s.Len(s.store.buckets, 1)
	s.Contains(s.store.buckets, "10.0.0.9")
}

func (s *InMemoryBucketStoreSuite) TestActiveKeysSurviveSweep() {
	_, err := s.store.Allow(s.ctx, "busy", testLimit, testWindow)
	s.Require().NoError(err)
	s.clock = s.clock.Add(testWindow - time.Second)
	_, err = s.store.Allow(s.ctx, "busy", testLimit, testWindow)
	s.Require().NoError(err)

	s.clock = s.clock.Add(2 * time.Second)
	result, err := s.store.Allow(s.ctx, "other", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)

	s.Contains(s.store.buckets, "busy")
	s.Len(s.store.buckets["busy"].timestamps, 1)
}
