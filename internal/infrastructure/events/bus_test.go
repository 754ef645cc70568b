package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/recipeatlas/server/internal/domain/recipe"
	"github.com/recipeatlas/server/internal/domain/shared"
	"github.com/recipeatlas/server/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type BusTestSuite struct {
	suite.Suite
	bus *Bus
}

func (s *BusTestSuite) SetupTest() {
	s.bus = NewBus(zap.NewNop())
}

func (s *BusTestSuite) TestPublishRoutesByName() {
	var got []string
	s.bus.Subscribe("recipe.created", func(e shared.DomainEvent) error {
		got = append(got, e.EventName())
		return nil
	})

	s.bus.Publish(context.Background(),
		recipe.CreatedEvent{RecipeID: 1, CreatedAt: time.Now()},
		user.RegisteredEvent{UserID: 2, RegisteredAt: time.Now()},
	)

	s.Equal([]string{"recipe.created"}, got)
}

func (s *BusTestSuite) TestWildcardSeesEverything() {
	count := 0
	s.bus.Subscribe(Wildcard, func(shared.DomainEvent) error {
		count++
		return nil
	})

	s.bus.Publish(context.Background(),
		recipe.DeletedEvent{RecipeID: 1, DeletedAt: time.Now()},
		user.DeletedEvent{UserID: 2, DeletedAt: time.Now()},
	)

	s.Equal(2, count)
}

func (s *BusTestSuite) TestFailingHandlerDoesNotStopOthers() {
	reached := false
	s.bus.Subscribe("user.deleted", func(shared.DomainEvent) error {
		return errors.New("boom")
	})
	s.bus.Subscribe("user.deleted", func(shared.DomainEvent) error {
		panic("worse")
	})
	s.bus.Subscribe("user.deleted", func(shared.DomainEvent) error {
		reached = true
		return nil
	})

	s.NotPanics(func() {
		s.bus.Publish(context.Background(), user.DeletedEvent{UserID: 1, DeletedAt: time.Now()})
	})
	s.True(reached)
}

func (s *BusTestSuite) TestCancelledContextSkipsDelivery() {
	called := false
	s.bus.Subscribe(Wildcard, func(shared.DomainEvent) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.bus.Publish(ctx, user.DeletedEvent{UserID: 1, DeletedAt: time.Now()})

	assert.False(s.T(), called)
}

func TestBusTestSuite(t *testing.T) {
	suite.Run(t, new(BusTestSuite))
}
