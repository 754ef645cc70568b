package session

import (
	"context"
	"testing"
	"time"

	"github.com/recipeatlas/server/internal/ports/outbound"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type MemoryStoreTestSuite struct {
	suite.Suite
	store *MemoryStore
	clock time.Time
	ctx   context.Context
}

func (s *MemoryStoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.store = NewMemoryStore(time.Minute, zap.NewNop())
	s.store.now = func() time.Time { return s.clock }
}

func (s *MemoryStoreTestSuite) TestCreateAndGet() {
	id, err := s.store.Create(s.ctx, 42, time.Hour)
	s.Require().NoError(err)
	s.NotEmpty(id)

	userID, err := s.store.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(uint(42), userID)
}

func (s *MemoryStoreTestSuite) TestIDsAreUnique() {
	a, _ := s.store.Create(s.ctx, 1, time.Hour)
	b, _ := s.store.Create(s.ctx, 1, time.Hour)
	s.NotEqual(a, b)
}

func (s *MemoryStoreTestSuite) TestUnknownSession() {
	_, err := s.store.Get(s.ctx, "missing")
	s.ErrorIs(err, outbound.ErrSessionNotFound)
}

func (s *MemoryStoreTestSuite) TestExpiredSessionIsRejectedAndDropped() {
	id, _ := s.store.Create(s.ctx, 7, time.Hour)
	s.clock = s.clock.Add(time.Hour)

	_, err := s.store.Get(s.ctx, id)
	s.ErrorIs(err, outbound.ErrSessionNotFound)
	s.Equal(0, s.store.Len())
}

func (s *MemoryStoreTestSuite) TestDelete() {
	id, _ := s.store.Create(s.ctx, 7, time.Hour)
	s.Require().NoError(s.store.Delete(s.ctx, id))

	_, err := s.store.Get(s.ctx, id)
	s.ErrorIs(err, outbound.ErrSessionNotFound)
	s.NoError(s.store.Delete(s.ctx, id))
}

func (s *MemoryStoreTestSuite) TestSweepRemovesOnlyExpired() {
	_, _ = s.store.Create(s.ctx, 1, time.Minute)
	_, _ = s.store.Create(s.ctx, 2, time.Minute)
	keep, _ := s.store.Create(s.ctx, 3, time.Hour)

	s.clock = s.clock.Add(2 * time.Minute)

	s.Equal(2, s.store.Sweep())
	s.Equal(1, s.store.Len())

	userID, err := s.store.Get(s.ctx, keep)
	s.Require().NoError(err)
	s.Equal(uint(3), userID)
}

func (s *MemoryStoreTestSuite) TestStartStopIsIdempotent() {
	s.store.Start()
	s.store.Start()
	s.store.Stop()
	s.store.Stop()
}

func TestMemoryStoreTestSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreTestSuite))
}
