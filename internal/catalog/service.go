package catalog

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/kudos/internal/domain"
	"github.com/victornm/kudos/internal/errors"
)

// DefaultMessageTemplate is used when no templates are defined in the store.
const DefaultMessageTemplate = `{sender} said "{attachmentText}" and awarded {receiver} with {award}.`

type Config struct {
	DB *pgxpool.Pool
}

// Service reads the award catalog and announcement message templates.
// All operations are read-only; awards are administered out of band.
type Service struct {
	db *pgxpool.Pool
}

func NewService(c Config) *Service {
	return &Service{
		db: c.DB,
	}
}

// LoadCatalog returns all defined awards in the store's natural order.
// Presentation ordering is applied by the aggregator, not here.
func (s *Service) LoadCatalog(ctx context.Context) ([]domain.Award, error) {
	const stmt = `
SELECT award_id, shortcode, display_text, description, weight
FROM awards;`

	rows, err := s.db.Query(ctx, stmt)
	if err != nil {
		return nil, errors.New(errors.CodeUnavailable,
			errors.WithMessagef("load award catalog"),
			errors.WithCause(err))
	}

	awards, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Award, error) {
		var a domain.Award
		if err := r.Scan(&a.ID, &a.Shortcode, &a.DisplayText, &a.Description, &a.Weight); err != nil {
			return domain.Award{}, err
		}
		return a, nil
	})
	if err != nil {
		return nil, errors.New(errors.CodeUnavailable,
			errors.WithMessagef("scan award catalog"),
			errors.WithCause(err))
	}

	return awards, nil
}

// RandomTemplate returns a random announcement template. Template bodies can
// be large, so ids are fetched first and only the chosen row is loaded.
// An empty table is not an error: the built-in default is returned instead.
func (s *Service) RandomTemplate(ctx context.Context) (string, error) {
	const idStmt = `SELECT template_id FROM message_templates;`

	rows, err := s.db.Query(ctx, idStmt)
	if err != nil {
		return "", fmt.Errorf("list template ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (int64, error) {
		var id int64
		err := r.Scan(&id)
		return id, err
	})
	if err != nil {
		return "", fmt.Errorf("scan template ids: %w", err)
	}

	if len(ids) == 0 {
		return DefaultMessageTemplate, nil
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(ids))))
	if err != nil {
		return "", fmt.Errorf("pick template: %w", err)
	}

	const bodyStmt = `SELECT body FROM message_templates WHERE template_id = $1;`

	var body string
	if err := s.db.QueryRow(ctx, bodyStmt, ids[n.Int64()]).Scan(&body); err != nil {
		return "", fmt.Errorf("load template body: %w", err)
	}

	return body, nil
}
