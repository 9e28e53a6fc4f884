package modal_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/victornm/kudos/internal/domain"
	"github.com/victornm/kudos/internal/modal"
)

func TestBuildAwardsView(t *testing.T) {
	t.Parallel()

	awards := []domain.Award{
		{ID: "A1", Shortcode: ":carrot:", DisplayText: "Golden Carrot", Weight: decimal.NewFromInt(3)},
		{ID: "A2", Shortcode: ":taco:", DisplayText: "Taco of Honor", Weight: decimal.NewFromInt(1)},
	}

	v, err := modal.BuildAwardsView("C42", awards, 5, 3)
	require.NoError(t, err)

	require.Equal(t, "modal", v.Type)
	require.Equal(t, modal.CallbackID, v.CallbackID)
	require.JSONEq(t, `{"channelId":"C42"}`, v.PrivateMetadata)
	require.Len(t, v.Blocks, 3)

	options := v.Blocks[1].Element.Options
	require.Len(t, options, 2)
	require.Equal(t, "Golden Carrot :carrot:", options[0].Text.Text)
	require.Equal(t, "A1", options[0].Value)

	// The whole view must serialize, Slack rejects anything malformed.
	_, err = json.Marshal(v)
	require.NoError(t, err)
}

func TestParseSubmission(t *testing.T) {
	t.Parallel()

	body := fmt.Sprintf(`{
		"type": "view_submission",
		"user": {"id": "U9"},
		"view": {
			"callback_id": %q,
			"private_metadata": "{\"channelId\":\"C42\"}",
			"state": {
				"values": {
					%q: {"user-select-action": {"selected_users": ["U1", "U2"]}},
					%q: {"award-select-action": {"selected_options": [
						{"text": {"type": "plain_text", "text": "Golden Carrot :carrot:"}, "value": "A1"}
					]}},
					%q: {"note-input-action": {"value": "great work"}}
				}
			}
		}
	}`, modal.CallbackID, modal.BlockUserSelect, modal.BlockAwardSelect, modal.BlockNoteInput)

	sub, err := modal.ParseSubmission([]byte(body))
	require.NoError(t, err)

	require.Equal(t, &modal.Submission{
		SenderID:      "U9",
		ChannelID:     "C42",
		SelectedUsers: []string{"U1", "U2"},
		Awards:        []modal.SelectedAward{{ID: "A1", Emoji: ":carrot:"}},
		Note:          "great work",
	}, sub)
}

func TestParseSubmission_WrongCallback(t *testing.T) {
	t.Parallel()

	_, err := modal.ParseSubmission([]byte(`{"view": {"callback_id": "other"}}`))
	require.Error(t, err)
}

func TestSubmission_Validate(t *testing.T) {
	tests := map[string]struct {
		sub  modal.Submission
		want map[string]string
	}{
		"valid submission": {
			sub: modal.Submission{
				SenderID:      "U9",
				SelectedUsers: []string{"U1"},
				Awards:        []modal.SelectedAward{{ID: "A1"}},
			},
			want: map[string]string{},
		},

		"self-award is rejected": {
			sub: modal.Submission{
				SenderID:      "U9",
				SelectedUsers: []string{"U1", "U9"},
			},
			want: map[string]string{
				modal.BlockUserSelect: "Sorry, please remove yourself from the list :)",
			},
		},

		"too many users": {
			sub: modal.Submission{
				SenderID:      "U9",
				SelectedUsers: []string{"U1", "U2", "U3"},
			},
			want: map[string]string{
				modal.BlockUserSelect: "Maximum number of users to select is 2.",
			},
		},

		"too many awards": {
			sub: modal.Submission{
				SenderID:      "U9",
				SelectedUsers: []string{"U1"},
				Awards: []modal.SelectedAward{
					{ID: "A1"}, {ID: "A2"}, {ID: "A3"},
				},
			},
			want: map[string]string{
				modal.BlockAwardSelect: "Maximum number of awards to select is 2.",
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, tt.sub.Validate(2, 2))
		})
	}
}
