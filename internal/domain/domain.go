package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Award is a recognition type defined in the catalog.
type Award struct {
	// ID is the unique catalog identifier, stable across requests.
	ID string
	// Shortcode is the emoji reference, e.g. ":carrot:".
	Shortcode string
	// DisplayText is the human readable name shown in menus and tooltips.
	DisplayText string
	Description string
	// Weight is the contribution of a single award to the total score.
	// Negative weights are allowed for demerit awards.
	Weight decimal.Decimal
}

// EnrichedAward is an award bound to the downloaded emoji image bytes.
// It only lives for a single rendering pass.
type EnrichedAward struct {
	Award
	ImageData []byte
}

// ScoreCard holds a user's accumulated per-award counts.
// Counts only ever increment; a card is created on first award
// and never deleted by the bot.
type ScoreCard struct {
	UserID string
	// Counts maps award id to count. An absent id means count 0.
	Counts map[string]int64
}

// Count returns the count for an award id, 0 when absent.
func (c ScoreCard) Count(awardID string) int64 {
	return c.Counts[awardID]
}

// EnrichedUser is a score card decorated with the resolved display name.
type EnrichedUser struct {
	Card        ScoreCard
	DisplayName string
}

// Row is one aggregated scoreboard row. Counts is aligned 1:1 with the
// award display order of the pass that produced it.
type Row struct {
	UserID      string
	DisplayName string
	Counts      []int64
	TotalScore  decimal.Decimal
}

// FormattedScore renders the total with at most 2 decimal places and
// trailing zeros trimmed, so a whole number shows without a decimal point.
func (r Row) FormattedScore() string {
	s := r.TotalScore.Round(2).StringFixed(2)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// Submission is a single (receiver, award) pair from one award event.
type Submission struct {
	UserID  string
	AwardID string
}
