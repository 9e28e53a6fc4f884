package scorecard

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/victornm/kudos/internal/domain"
)

// SortAwards orders awards for display: descending weight, ties broken by
// ascending display text. The order is computed once per pass and shared by
// the header and every row.
func SortAwards(awards []domain.EnrichedAward) {
	slices.SortFunc(awards, func(a, b domain.EnrichedAward) int {
		if c := b.Weight.Cmp(a.Weight); c != 0 {
			return c
		}
		return strings.Compare(a.DisplayText, b.DisplayText)
	})
}

// Aggregate produces one dense row per enriched user: a count vector aligned
// with the award order plus the weighted total. Awards missing from a card
// count as zero.
func Aggregate(users []domain.EnrichedUser, awards []domain.EnrichedAward) []domain.Row {
	rows := make([]domain.Row, 0, len(users))

	for _, u := range users {
		row := domain.Row{
			UserID:      u.Card.UserID,
			DisplayName: u.DisplayName,
			Counts:      make([]int64, 0, len(awards)),
			TotalScore:  decimal.Zero,
		}

		for _, a := range awards {
			count := u.Card.Count(a.ID)
			row.Counts = append(row.Counts, count)
			if count != 0 {
				row.TotalScore = row.TotalScore.Add(a.Weight.Mul(decimal.NewFromInt(count)))
			}
		}

		rows = append(rows, row)
	}

	return rows
}

// Rank sorts rows by descending total score and truncates to limit.
// Equal totals are ordered by ascending user id so two identical requests
// rank the same users the same way.
func Rank(rows []domain.Row, limit int) []domain.Row {
	slices.SortFunc(rows, func(a, b domain.Row) int {
		if c := b.TotalScore.Cmp(a.TotalScore); c != 0 {
			return c
		}
		return strings.Compare(a.UserID, b.UserID)
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	return rows
}
