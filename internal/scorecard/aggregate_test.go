package scorecard_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/victornm/kudos/internal/domain"
	"github.com/victornm/kudos/internal/scorecard"
)

func TestSortAwards(t *testing.T) {
	t.Parallel()

	awards := []domain.EnrichedAward{
		enrichedAward("C", "Carrot", "1"),
		enrichedAward("B", "Bravo", "3"),
		enrichedAward("A", "Applause", "3"),
	}

	scorecard.SortAwards(awards)

	ids := make([]string, 0, len(awards))
	for _, a := range awards {
		ids = append(ids, a.ID)
	}

	// Descending weight, equal weights ordered by ascending display text.
	require.Equal(t, []string{"A", "B", "C"}, ids)
}

func TestAggregate(t *testing.T) {
	type (
		inputs struct {
			users  []domain.EnrichedUser
			awards []domain.EnrichedAward
		}

		outputs struct {
			rows []domain.Row
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"counts align with award order and missing awards count zero": {
			arrange: func() inputs {
				return inputs{
					users: []domain.EnrichedUser{
						user("U1", "Anna", map[string]int64{"A2": 4}),
					},
					awards: []domain.EnrichedAward{
						enrichedAward("A1", "Applause", "3"),
						enrichedAward("A2", "Bravo", "0.5"),
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.rows, 1)
				require.Equal(t, []int64{0, 4}, out.rows[0].Counts)
				require.Equal(t, "2", out.rows[0].FormattedScore())
			},
		},

		"total is the weighted sum across all awards": {
			arrange: func() inputs {
				return inputs{
					users: []domain.EnrichedUser{
						user("U1", "Anna", map[string]int64{"A1": 2, "A2": 3}),
					},
					awards: []domain.EnrichedAward{
						enrichedAward("A1", "Applause", "1.25"),
						enrichedAward("A2", "Bravo", "0.1"),
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				// 2*1.25 + 3*0.1 = 2.8
				require.Equal(t, "2.8", out.rows[0].FormattedScore())
			},
		},

		"negative weights subtract from the total": {
			arrange: func() inputs {
				return inputs{
					users: []domain.EnrichedUser{
						user("U1", "Anna", map[string]int64{"A1": 3, "A2": 1}),
					},
					awards: []domain.EnrichedAward{
						enrichedAward("A1", "Applause", "2"),
						enrichedAward("A2", "Demerit", "-1.5"),
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.Equal(t, "4.5", out.rows[0].FormattedScore())
			},
		},

		"every row is dense over the award vector": {
			arrange: func() inputs {
				return inputs{
					users: []domain.EnrichedUser{
						user("U1", "Anna", nil),
						user("U2", "Ben", map[string]int64{"A1": 1}),
					},
					awards: []domain.EnrichedAward{
						enrichedAward("A1", "Applause", "3"),
						enrichedAward("A2", "Bravo", "1"),
						enrichedAward("A3", "Carrot", "1"),
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				for _, r := range out.rows {
					require.Len(t, r.Counts, 3)
				}
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := tt.arrange()
			tt.assert(t, outputs{rows: scorecard.Aggregate(in.users, in.awards)})
		})
	}
}

func TestRank(t *testing.T) {
	t.Parallel()

	rows := []domain.Row{
		rankedRow("U3", "1"),
		rankedRow("U1", "5"),
		rankedRow("U5", "3"),
		rankedRow("U2", "3"),
		rankedRow("U4", "4"),
	}

	got := scorecard.Rank(rows, 2)

	require.Len(t, got, 2)
	require.Equal(t, "U1", got[0].UserID)
	require.Equal(t, "U4", got[1].UserID)
}

func TestRank_TieBreaksOnUserID(t *testing.T) {
	t.Parallel()

	rows := []domain.Row{
		rankedRow("U2", "3"),
		rankedRow("U1", "3"),
	}

	got := scorecard.Rank(rows, 0)

	require.Equal(t, "U1", got[0].UserID)
	require.Equal(t, "U2", got[1].UserID)
}

func TestRow_FormattedScore(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"12":     "12",
		"12.5":   "12.5",
		"12.50":  "12.5",
		"12.345": "12.35",
		"0":      "0",
		"-3.10":  "-3.1",
	}

	for in, want := range tests {
		d, err := decimal.NewFromString(in)
		require.NoError(t, err)

		r := domain.Row{TotalScore: d}
		require.Equal(t, want, r.FormattedScore(), "input %s", in)
	}
}

func enrichedAward(id, text, weight string) domain.EnrichedAward {
	w, err := decimal.NewFromString(weight)
	if err != nil {
		panic(err)
	}

	return domain.EnrichedAward{
		Award: domain.Award{
			ID:          id,
			DisplayText: text,
			Weight:      w,
		},
		ImageData: []byte(id),
	}
}

func user(id, name string, counts map[string]int64) domain.EnrichedUser {
	return domain.EnrichedUser{
		Card: domain.ScoreCard{
			UserID: id,
			Counts: counts,
		},
		DisplayName: name,
	}
}

func rankedRow(userID, total string) domain.Row {
	d, err := decimal.NewFromString(total)
	if err != nil {
		panic(err)
	}

	return domain.Row{UserID: userID, TotalScore: d}
}
