// Package enrich decorates ledger and catalog records with external display
// data (names, emoji images) needed only for rendering. Lookups fan out
// concurrently; a failed lookup drops its item from the result instead of
// failing the batch.
package enrich

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/victornm/kudos/internal/domain"
	"github.com/victornm/kudos/internal/errors"
)

const maxConcurrent = 16

// Profiles resolves a user id to a display name.
type Profiles interface {
	ResolveDisplayName(ctx context.Context, userID string) (string, error)
}

// EmojiDirectory lists the workspace emoji as shortcode name -> image URL.
type EmojiDirectory interface {
	ListEmoji(ctx context.Context) (map[string]string, error)
}

// Fetcher downloads raw bytes from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Config struct {
	Profiles Profiles
	Emoji    EmojiDirectory
	Fetcher  Fetcher
}

type Service struct {
	profiles Profiles
	emoji    EmojiDirectory
	fetcher  Fetcher
}

func NewService(c Config) *Service {
	return &Service{
		profiles: c.Profiles,
		emoji:    c.Emoji,
		fetcher:  c.Fetcher,
	}
}

// Users resolves display names for all cards concurrently. Cards whose lookup
// fails are dropped; survivors keep their input order. Outcomes are collected
// per index and filtered once after the join, the shared slice is never
// mutated while lookups are in flight.
func (s *Service) Users(ctx context.Context, cards []domain.ScoreCard) []domain.EnrichedUser {
	names := make([]string, len(cards))
	resolved := make([]bool, len(cards))

	var eg errgroup.Group
	eg.SetLimit(maxConcurrent)

	for i, card := range cards {
		i, card := i, card
		eg.Go(func() error {
			name, err := s.profiles.ResolveDisplayName(ctx, card.UserID)
			if err != nil {
				slog.WarnContext(ctx, "enrich: profile lookup failed, dropping user from display list",
					"user", card.UserID,
					"error", err,
				)
				return nil
			}

			names[i] = name
			resolved[i] = true
			return nil
		})
	}
	_ = eg.Wait() // lookups never return an error, failures only drop

	users := make([]domain.EnrichedUser, 0, len(cards))
	for i, card := range cards {
		if !resolved[i] {
			continue
		}
		users = append(users, domain.EnrichedUser{
			Card:        card,
			DisplayName: names[i],
		})
	}

	return users
}

// Awards resolves emoji images for the catalog. An award is dropped when its
// shortcode is unknown to the directory, points at an alias (aliases have no
// standalone image to render), or its image download fails. A directory
// listing failure is fatal for the whole pass.
func (s *Service) Awards(ctx context.Context, awards []domain.Award) ([]domain.EnrichedAward, error) {
	links, err := s.emoji.ListEmoji(ctx)
	if err != nil {
		return nil, errors.New(errors.CodeUnavailable,
			errors.WithMessagef("list workspace emoji"),
			errors.WithCause(err))
	}

	type candidate struct {
		award domain.Award
		url   string
	}

	candidates := make([]candidate, 0, len(awards))
	for _, a := range awards {
		url, ok := links[shortcodeName(a.Shortcode)]
		if !ok || strings.Contains(strings.ToLower(url), "alias") {
			slog.WarnContext(ctx, "enrich: award has no renderable emoji, dropping",
				"award", a.ID,
				"shortcode", a.Shortcode,
			)
			continue
		}
		candidates = append(candidates, candidate{award: a, url: url})
	}

	images := make([][]byte, len(candidates))

	var eg errgroup.Group
	eg.SetLimit(maxConcurrent)

	for i, c := range candidates {
		i, c := i, c
		eg.Go(func() error {
			data, err := s.fetcher.Fetch(ctx, c.url)
			if err != nil {
				slog.WarnContext(ctx, "enrich: emoji download failed, dropping award",
					"award", c.award.ID,
					"url", c.url,
					"error", err,
				)
				return nil
			}

			images[i] = data
			return nil
		})
	}
	_ = eg.Wait()

	enriched := make([]domain.EnrichedAward, 0, len(candidates))
	for i, c := range candidates {
		if images[i] == nil {
			continue
		}
		enriched = append(enriched, domain.EnrichedAward{
			Award:     c.award,
			ImageData: images[i],
		})
	}

	return enriched, nil
}

// shortcodeName strips the surrounding colons from an emoji reference,
// ":carrot:" -> "carrot".
func shortcodeName(shortcode string) string {
	return strings.Trim(shortcode, ":")
}
