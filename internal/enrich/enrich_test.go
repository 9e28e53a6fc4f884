package enrich_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/victornm/kudos/internal/domain"
	"github.com/victornm/kudos/internal/enrich"
)

func TestService_Users(t *testing.T) {
	type (
		inputs struct {
			cards    []domain.ScoreCard
			profiles fakeProfiles
		}

		outputs struct {
			users []domain.EnrichedUser
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"all lookups succeed, order preserved": {
			arrange: func() inputs {
				return inputs{
					cards: []domain.ScoreCard{
						{UserID: "U1"},
						{UserID: "U2"},
						{UserID: "U3"},
					},
					profiles: fakeProfiles{
						"U1": "Anna",
						"U2": "Ben",
						"U3": "Cleo",
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				names := make([]string, 0, len(out.users))
				for _, u := range out.users {
					names = append(names, u.DisplayName)
				}
				require.Equal(t, []string{"Anna", "Ben", "Cleo"}, names)
			},
		},

		"a failed lookup drops only that user": {
			arrange: func() inputs {
				return inputs{
					cards: []domain.ScoreCard{
						{UserID: "U1"},
						{UserID: "U404"},
						{UserID: "U3"},
					},
					profiles: fakeProfiles{
						"U1": "Anna",
						"U3": "Cleo",
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.users, 2)
				require.Equal(t, "U1", out.users[0].Card.UserID)
				require.Equal(t, "U3", out.users[1].Card.UserID)
			},
		},

		"all lookups fail, result is empty but no error": {
			arrange: func() inputs {
				return inputs{
					cards: []domain.ScoreCard{
						{UserID: "U1"},
						{UserID: "U2"},
					},
					profiles: fakeProfiles{},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.Empty(t, out.users)
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := tt.arrange()

			s := enrich.NewService(enrich.Config{
				Profiles: in.profiles,
				Emoji:    fakeEmoji{},
				Fetcher:  fakeFetcher{},
			})

			tt.assert(t, outputs{users: s.Users(context.Background(), in.cards)})
		})
	}
}

func TestService_Awards(t *testing.T) {
	catalog := []domain.Award{
		award("A1", ":carrot:"),
		award("A2", ":taco:"),
		award("A3", ":ghost:"),
	}

	type (
		inputs struct {
			emoji   fakeEmoji
			fetcher fakeFetcher
		}

		outputs struct {
			awards []domain.EnrichedAward
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"alias and unresolvable shortcodes are dropped": {
			arrange: func() inputs {
				return inputs{
					emoji: fakeEmoji{
						"carrot": "https://emoji.test/carrot.png",
						"taco":   "alias:burrito",
						// ghost is absent
					},
					fetcher: fakeFetcher{
						"https://emoji.test/carrot.png": []byte("carrot-bytes"),
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.awards, 1)
				require.Equal(t, "A1", out.awards[0].ID)
				require.Equal(t, []byte("carrot-bytes"), out.awards[0].ImageData)
			},
		},

		"a failed download drops only that award": {
			arrange: func() inputs {
				return inputs{
					emoji: fakeEmoji{
						"carrot": "https://emoji.test/carrot.png",
						"taco":   "https://emoji.test/taco.png",
						"ghost":  "https://emoji.test/ghost.png",
					},
					fetcher: fakeFetcher{
						"https://emoji.test/carrot.png": []byte("carrot-bytes"),
						"https://emoji.test/ghost.png":  []byte("ghost-bytes"),
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.awards, 2)
				require.Equal(t, "A1", out.awards[0].ID)
				require.Equal(t, "A3", out.awards[1].ID)
			},
		},

		"nothing renderable yields an empty set without error": {
			arrange: func() inputs {
				return inputs{
					emoji:   fakeEmoji{"carrot": "alias:karrot"},
					fetcher: fakeFetcher{},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.Empty(t, out.awards)
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := tt.arrange()

			s := enrich.NewService(enrich.Config{
				Profiles: fakeProfiles{},
				Emoji:    in.emoji,
				Fetcher:  in.fetcher,
			})

			awards, err := s.Awards(context.Background(), catalog)
			require.NoError(t, err)

			tt.assert(t, outputs{awards: awards})
		})
	}
}

func TestService_Awards_DirectoryFailureIsFatal(t *testing.T) {
	t.Parallel()

	s := enrich.NewService(enrich.Config{
		Emoji: failingEmoji{},
	})

	_, err := s.Awards(context.Background(), []domain.Award{award("A1", ":carrot:")})
	require.Error(t, err)
}

func award(id, shortcode string) domain.Award {
	return domain.Award{
		ID:          id,
		Shortcode:   shortcode,
		DisplayText: id,
		Weight:      decimal.NewFromInt(1),
	}
}

type fakeProfiles map[string]string

func (f fakeProfiles) ResolveDisplayName(_ context.Context, userID string) (string, error) {
	name, ok := f[userID]
	if !ok {
		return "", fmt.Errorf("user %s not found", userID)
	}
	return name, nil
}

type fakeEmoji map[string]string

func (f fakeEmoji) ListEmoji(context.Context) (map[string]string, error) {
	return f, nil
}

type failingEmoji struct{}

func (failingEmoji) ListEmoji(context.Context) (map[string]string, error) {
	return nil, fmt.Errorf("emoji directory unreachable")
}

type fakeFetcher map[string][]byte

func (f fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	data, ok := f[url]
	if !ok {
		return nil, fmt.Errorf("fetch %s: not found", url)
	}
	return data, nil
}
