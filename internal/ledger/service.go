package ledger

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/victornm/kudos/internal/domain"
	"github.com/victornm/kudos/internal/errors"
)

type Config struct {
	Redis  redis.UniversalClient
	Prefix string
}

// Service owns the per-user score cards. Each card is a Redis hash keyed by
// user id with one field per award id; an index set tracks which users have
// ever been awarded.
//
// Counters are only ever moved through BulkIncrement, so one submission event
// is one atomic visible state transition.
type Service struct {
	redis  redis.UniversalClient
	prefix string
}

func NewService(c Config) *Service {
	return &Service{
		redis:  c.Redis,
		prefix: c.Prefix,
	}
}

// ReadAll returns every score card in the ledger.
func (s *Service) ReadAll(ctx context.Context) ([]domain.ScoreCard, error) {
	userIDs, err := s.redis.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, errors.New(errors.CodeUnavailable,
			errors.WithMessagef("read score card index"),
			errors.WithCause(err))
	}

	cards := make([]domain.ScoreCard, 0, len(userIDs))
	for _, id := range userIDs {
		card, err := s.ReadOne(ctx, id)
		if err != nil {
			return nil, err
		}
		if card != nil {
			cards = append(cards, *card)
		}
	}

	return cards, nil
}

// ReadOne returns the score card for a user, or nil if the user has never
// been awarded.
func (s *Service) ReadOne(ctx context.Context, userID string) (*domain.ScoreCard, error) {
	fields, err := s.redis.HGetAll(ctx, s.cardKey(userID)).Result()
	if err != nil {
		return nil, errors.New(errors.CodeUnavailable,
			errors.WithMessagef("read score card: user=%s", userID),
			errors.WithCause(err))
	}

	if len(fields) == 0 {
		return nil, nil
	}

	counts := make(map[string]int64, len(fields))
	for awardID, v := range fields {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse count: user=%s award=%s: %w", userID, awardID, err)
		}
		counts[awardID] = n
	}

	return &domain.ScoreCard{
		UserID: userID,
		Counts: counts,
	}, nil
}

// BulkIncrement applies one award submission as a single atomic batch.
// Each (user, award) pair increments that award's count by 1, creating the
// card or the award slot as needed; the same pair listed twice adds 2.
//
// HINCRBY is atomic per field, so concurrent submissions for the same user
// serialize on the store side and no read-modify-write race exists here.
func (s *Service) BulkIncrement(ctx context.Context, submissions []domain.Submission) error {
	if len(submissions) == 0 {
		return nil
	}

	pipe := s.redis.TxPipeline()
	for _, sub := range submissions {
		pipe.HIncrBy(ctx, s.cardKey(sub.UserID), sub.AwardID, 1)
		pipe.SAdd(ctx, s.indexKey(), sub.UserID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.New(errors.CodeUnavailable,
			errors.WithMessagef("bulk increment: %d submissions", len(submissions)),
			errors.WithCause(err))
	}

	return nil
}

func (s *Service) cardKey(userID string) string {
	return fmt.Sprintf("%s:scorecard:%s", s.prefix, userID)
}

func (s *Service) indexKey() string {
	return fmt.Sprintf("%s:scorecards", s.prefix)
}
