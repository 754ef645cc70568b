package engagement

import (
	"context"
	"time"

	"github.com/recipeatlas/server/internal/application/assembler"
	"github.com/recipeatlas/server/internal/domain/engagement"
	"github.com/recipeatlas/server/internal/domain/recipe"
	"github.com/recipeatlas/server/internal/ports/inbound"
	"github.com/recipeatlas/server/internal/ports/outbound"
	"go.uber.org/zap"
)

// VoteService keeps at most one live vote per (user, target) and reports
// tallies computed from the live rows
type VoteService struct {
	tx     outbound.TxManager
	votes  outbound.VoteRepository
	events outbound.EventBus
	logger *zap.Logger
}

// NewVoteService creates a vote service
func NewVoteService(tx outbound.TxManager, votes outbound.VoteRepository, events outbound.EventBus, logger *zap.Logger) *VoteService {
	return &VoteService{
		tx:     tx,
		votes:  votes,
		events: events,
		logger: logger.Named("vote-service"),
	}
}

var _ inbound.VoteService = (*VoteService)(nil)

// SetVote records the user's vote on target, replacing any earlier one
func (s *VoteService) SetVote(ctx context.Context, userID uint, target engagement.Target, voteType engagement.VoteType) (*inbound.TallyDTO, error) {
	if err := target.Validate(); err != nil {
		return nil, toAppError(err, "set vote")
	}
	if _, err := engagement.ParseVoteType(string(voteType)); err != nil {
		return nil, toAppError(err, "set vote")
	}

	now := time.Now().UTC()
	var tally engagement.Tally

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireTarget(ctx, target); err != nil {
			return err
		}

		err := s.votes.Upsert(ctx, &engagement.Vote{
			UserID:    userID,
			Target:    target,
			Type:      voteType,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}

		tally, err = s.tally(ctx, userID, target)
		return err
	})
	if err != nil {
		return nil, toAppError(err, "set vote")
	}

	s.events.Publish(ctx, engagement.VoteCastEvent{UserID: userID, Target: target, Type: voteType, At: now})

	s.logger.Debug("Vote cast",
		zap.Uint("user_id", userID),
		zap.String("target_kind", string(target.Kind)),
		zap.Uint("target_id", target.ID),
		zap.String("vote_type", string(voteType)),
	)

	dto := assembler.Tally(tally)
	return &dto, nil
}

// ClearVote removes the user's vote on target. Clearing an absent vote
// is not an error.
func (s *VoteService) ClearVote(ctx context.Context, userID uint, target engagement.Target) (*inbound.TallyDTO, error) {
	if err := target.Validate(); err != nil {
		return nil, toAppError(err, "clear vote")
	}

	var (
		tally   engagement.Tally
		removed bool
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireTarget(ctx, target); err != nil {
			return err
		}

		var err error
		removed, err = s.votes.Delete(ctx, userID, target)
		if err != nil {
			return err
		}

		tally, err = s.tally(ctx, userID, target)
		return err
	})
	if err != nil {
		return nil, toAppError(err, "clear vote")
	}

	if removed {
		s.events.Publish(ctx, engagement.VoteClearedEvent{UserID: userID, Target: target, At: time.Now().UTC()})
	}

	dto := assembler.Tally(tally)
	return &dto, nil
}

// Tallies returns the tally of every id; viewerID zero leaves UserVote nil
func (s *VoteService) Tallies(ctx context.Context, kind engagement.TargetKind, ids []uint, viewerID uint) (map[uint]inbound.TallyDTO, error) {
	tallies, err := s.votes.Tallies(ctx, kind, ids, viewerID)
	if err != nil {
		return nil, toAppError(err, "count votes")
	}

	out := make(map[uint]inbound.TallyDTO, len(tallies))
	for id, t := range tallies {
		out[id] = assembler.Tally(t)
	}
	return out, nil
}

func (s *VoteService) requireTarget(ctx context.Context, target engagement.Target) error {
	exists, err := s.votes.TargetExists(ctx, target)
	if err != nil {
		return err
	}
	if !exists {
		if target.Kind == engagement.TargetComment {
			return engagement.ErrCommentNotFound
		}
		return recipe.ErrRecipeNotFound
	}
	return nil
}

func (s *VoteService) tally(ctx context.Context, userID uint, target engagement.Target) (engagement.Tally, error) {
	tallies, err := s.votes.Tallies(ctx, target.Kind, []uint{target.ID}, userID)
	if err != nil {
		return engagement.Tally{}, err
	}
	return tallies[target.ID], nil
}
