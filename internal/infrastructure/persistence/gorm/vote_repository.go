package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/recipeatlas/server/internal/domain/engagement"
	"github.com/recipeatlas/server/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteRepository stores recipe and comment votes. Both tables share the
// same shape; voteTable picks the table and target column per kind.
type VoteRepository struct {
	db *gorm.DB
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

var _ outbound.VoteRepository = (*VoteRepository)(nil)

type voteTable struct {
	name        string
	column      string
	targetTable string
}

func tableFor(kind engagement.TargetKind) (voteTable, error) {
	switch kind {
	case engagement.TargetRecipe:
		return voteTable{name: "recipe_votes", column: "recipe_id", targetTable: "recipes"}, nil
	case engagement.TargetComment:
		return voteTable{name: "comment_votes", column: "comment_id", targetTable: "comments"}, nil
	}
	return voteTable{}, engagement.ErrInvalidTargetKind
}

// Upsert inserts the vote, or overwrites vote_type on the existing
// (user, target) row. The unique index makes this a single atomic statement.
func (r *VoteRepository) Upsert(ctx context.Context, v *engagement.Vote) error {
	t, err := tableFor(v.Target.Kind)
	if err != nil {
		return err
	}

	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: t.column}},
		DoUpdates: clause.AssignmentColumns([]string{"vote_type", "updated_at"}),
	}

	var model interface{}
	switch v.Target.Kind {
	case engagement.TargetRecipe:
		model = &RecipeVoteModel{
			UserID:    v.UserID,
			RecipeID:  v.Target.ID,
			VoteType:  string(v.Type),
			CreatedAt: v.CreatedAt,
			UpdatedAt: v.UpdatedAt,
		}
	default:
		model = &CommentVoteModel{
			UserID:    v.UserID,
			CommentID: v.Target.ID,
			VoteType:  string(v.Type),
			CreatedAt: v.CreatedAt,
			UpdatedAt: v.UpdatedAt,
		}
	}

	return conn(ctx, r.db).Clauses(onConflict).Create(model).Error
}

// Delete removes the (user, target) vote if present
func (r *VoteRepository) Delete(ctx context.Context, userID uint, target engagement.Target) (bool, error) {
	t, err := tableFor(target.Kind)
	if err != nil {
		return false, err
	}

	result := conn(ctx, r.db).
		Exec(fmt.Sprintf("DELETE FROM %s WHERE user_id = ? AND %s = ?", t.name, t.column), userID, target.ID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

type voteRow struct {
	ID        uint
	VoteType  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Find returns the (user, target) vote, or nil when there is none
func (r *VoteRepository) Find(ctx context.Context, userID uint, target engagement.Target) (*engagement.Vote, error) {
	t, err := tableFor(target.Kind)
	if err != nil {
		return nil, err
	}

	var row voteRow
	err = conn(ctx, r.db).Table(t.name).
		Select("id, vote_type, created_at, updated_at").
		Where(fmt.Sprintf("user_id = ? AND %s = ?", t.column), userID, target.ID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &engagement.Vote{
		ID:        row.ID,
		UserID:    userID,
		Target:    target,
		Type:      engagement.VoteType(row.VoteType),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

type tallyRow struct {
	TargetID uint
	VoteType string
	N        int64
}

// Tallies counts live votes per target. Every requested id gets an entry.
func (r *VoteRepository) Tallies(ctx context.Context, kind engagement.TargetKind, ids []uint, viewerID uint) (map[uint]engagement.Tally, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	tallies := make(map[uint]engagement.Tally, len(ids))
	if len(ids) == 0 {
		return tallies, nil
	}
	for _, id := range ids {
		tallies[id] = engagement.Tally{}
	}

	var rows []tallyRow
	err = conn(ctx, r.db).Table(t.name).
		Select(fmt.Sprintf("%s AS target_id, vote_type, COUNT(*) AS n", t.column)).
		Where(fmt.Sprintf("%s IN ?", t.column), ids).
		Group(fmt.Sprintf("%s, vote_type", t.column)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		tally := tallies[row.TargetID]
		tally.Add(engagement.VoteType(row.VoteType), row.N)
		tallies[row.TargetID] = tally
	}

	if viewerID == 0 {
		return tallies, nil
	}

	var mine []tallyRow
	err = conn(ctx, r.db).Table(t.name).
		Select(fmt.Sprintf("%s AS target_id, vote_type", t.column)).
		Where(fmt.Sprintf("user_id = ? AND %s IN ?", t.column), viewerID, ids).
		Scan(&mine).Error
	if err != nil {
		return nil, err
	}
	for _, row := range mine {
		tally := tallies[row.TargetID]
		vt := engagement.VoteType(row.VoteType)
		tally.UserVote = &vt
		tallies[row.TargetID] = tally
	}

	return tallies, nil
}

// TargetExists reports whether the voted-on recipe or comment exists
func (r *VoteRepository) TargetExists(ctx context.Context, target engagement.Target) (bool, error) {
	t, err := tableFor(target.Kind)
	if err != nil {
		return false, err
	}

	var count int64
	err = conn(ctx, r.db).Table(t.targetTable).Where("id = ?", target.ID).Count(&count).Error
	return count > 0, err
}
