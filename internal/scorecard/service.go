package scorecard

import (
	"context"
	"log/slog"

	"github.com/victornm/kudos/internal/domain"
	"github.com/victornm/kudos/internal/enrich"
	"github.com/victornm/kudos/internal/errors"
	"github.com/victornm/kudos/internal/table"
)

// Catalog reads the defined award types.
type Catalog interface {
	LoadCatalog(ctx context.Context) ([]domain.Award, error)
}

// Ledger owns the per-user award counters.
type Ledger interface {
	ReadAll(ctx context.Context) ([]domain.ScoreCard, error)
	ReadOne(ctx context.Context, userID string) (*domain.ScoreCard, error)
	BulkIncrement(ctx context.Context, submissions []domain.Submission) error
}

// Renderer turns the table markup plus keyed image content into a raster image.
type Renderer interface {
	Render(ctx context.Context, html string, images map[string][]byte) ([]byte, error)
}

type Config struct {
	Catalog  Catalog
	Ledger   Ledger
	Enrich   *enrich.Service
	Renderer Renderer
}

// Service runs the award-tallying and score-rendering pipeline:
// catalog + ledger -> enrichment -> aggregation -> table -> image.
type Service struct {
	catalog  Catalog
	ledger   Ledger
	enrich   *enrich.Service
	renderer Renderer
}

func NewService(c Config) *Service {
	return &Service{
		catalog:  c.Catalog,
		ledger:   c.Ledger,
		enrich:   c.Enrich,
		renderer: c.Renderer,
	}
}

type GenerateScorecardRequest struct {
	// ScopeUserID limits the scoreboard to a single user.
	// Empty means leaderboard mode across all users.
	ScopeUserID string
	// Limit caps the number of leaderboard rows. Bounds checking is the
	// caller's concern; 0 means no truncation.
	Limit int
}

// GenerateScorecard produces the rendered scoreboard image for the requested
// scope. It fails with CodeNotFound when the scope has no displayable data and
// CodeFailedPrecondition when no award survives enrichment.
func (s *Service) GenerateScorecard(ctx context.Context, req GenerateScorecardRequest) ([]byte, error) {
	awards, err := s.catalog.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	cards, err := s.readScope(ctx, req.ScopeUserID)
	if err != nil {
		return nil, err
	}

	users := s.enrich.Users(ctx, cards)
	if len(users) == 0 {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("no score data for scope: user=%q", req.ScopeUserID))
	}

	enriched, err := s.enrich.Awards(ctx, awards)
	if err != nil {
		return nil, err
	}
	if len(enriched) == 0 {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("no renderable awards: catalog size=%d", len(awards)))
	}

	SortAwards(enriched)

	rows := Aggregate(users, enriched)
	if req.ScopeUserID == "" {
		rows = Rank(rows, req.Limit)
	}

	doc := table.Build(enriched, rows)

	images := make(map[string][]byte, len(enriched))
	for _, a := range enriched {
		images[a.ID] = a.ImageData
	}

	img, err := s.renderer.Render(ctx, doc.HTML(), images)
	if err != nil {
		return nil, errors.Internal(err)
	}

	slog.InfoContext(ctx, "scorecard: generated image",
		"scope", req.ScopeUserID,
		"rows", len(rows),
		"awards", len(enriched),
	)

	return img, nil
}

// RecordAwards applies one submission event to the ledger as a single atomic
// batch. Listing the same (user, award) pair twice increments that award by 2.
func (s *Service) RecordAwards(ctx context.Context, submissions []domain.Submission) error {
	if len(submissions) == 0 {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("no submissions"))
	}

	if err := s.ledger.BulkIncrement(ctx, submissions); err != nil {
		return err
	}

	slog.InfoContext(ctx, "scorecard: recorded awards", "submissions", len(submissions))
	return nil
}

// readScope returns the score cards relevant to the request: the whole ledger
// in leaderboard mode, or the single user's card.
func (s *Service) readScope(ctx context.Context, scopeUserID string) ([]domain.ScoreCard, error) {
	if scopeUserID == "" {
		return s.ledger.ReadAll(ctx)
	}

	card, err := s.ledger.ReadOne(ctx, scopeUserID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("no score card: user=%s", scopeUserID))
	}

	return []domain.ScoreCard{*card}, nil
}
