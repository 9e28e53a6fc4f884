// Package modal builds the award selection dialog and parses its submission.
package modal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/victornm/kudos/internal/domain"
)

const (
	// CallbackID identifies submissions of the awards dialog.
	CallbackID = "awards_modal"

	BlockUserSelect  = "user-select-block"
	BlockAwardSelect = "awards-select-block"
	BlockNoteInput   = "note-input-block"

	actionUserSelect  = "user-select-action"
	actionAwardSelect = "award-select-action"
	actionNoteInput   = "note-input-action"
)

// Text is a Block Kit text object.
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func plain(s string) Text {
	return Text{Type: "plain_text", Text: s}
}

// Option is one selectable entry of a static select element.
type Option struct {
	Text  Text   `json:"text"`
	Value string `json:"value"`
}

// Element is the input element of a block.
type Element struct {
	Type        string   `json:"type"`
	ActionID    string   `json:"action_id"`
	Placeholder *Text    `json:"placeholder,omitempty"`
	Options     []Option `json:"options,omitempty"`
}

// Block is a Block Kit input block.
type Block struct {
	Type     string  `json:"type"`
	BlockID  string  `json:"block_id"`
	Optional bool    `json:"optional"`
	Element  Element `json:"element"`
	Label    Text    `json:"label"`
}

// View is the modal sent to views.open.
type View struct {
	Type            string  `json:"type"`
	CallbackID      string  `json:"callback_id"`
	Title           Text    `json:"title"`
	Submit          Text    `json:"submit"`
	Close           Text    `json:"close"`
	PrivateMetadata string  `json:"private_metadata"`
	Blocks          []Block `json:"blocks"`
}

type metadata struct {
	ChannelID string `json:"channelId"`
}

// BuildAwardsView assembles the award dialog. The channel id rides along in
// the private metadata so the submission knows where to announce. Option
// labels carry the emoji shortcode as their last word; the submission parser
// relies on that.
func BuildAwardsView(channelID string, awards []domain.Award, maxUsers, maxAwards int) (View, error) {
	meta, err := json.Marshal(metadata{ChannelID: channelID})
	if err != nil {
		return View{}, fmt.Errorf("modal: marshal metadata: %w", err)
	}

	options := make([]Option, 0, len(awards))
	for _, a := range awards {
		options = append(options, Option{
			Text:  plain(fmt.Sprintf("%s %s", a.DisplayText, a.Shortcode)),
			Value: a.ID,
		})
	}

	userPlaceholder := plain(fmt.Sprintf("Select up to %d users", maxUsers))
	awardPlaceholder := plain(fmt.Sprintf("Select up to %d awards", maxAwards))

	return View{
		Type:            "modal",
		CallbackID:      CallbackID,
		Title:           plain("Kudos"),
		Submit:          plain("Submit"),
		Close:           plain("Cancel"),
		PrivateMetadata: string(meta),
		Blocks: []Block{
			{
				Type:    "input",
				BlockID: BlockUserSelect,
				Element: Element{
					Type:        "multi_users_select",
					ActionID:    actionUserSelect,
					Placeholder: &userPlaceholder,
				},
				Label: plain("Who is the lucky person?"),
			},
			{
				Type:    "input",
				BlockID: BlockAwardSelect,
				Element: Element{
					Type:        "multi_static_select",
					ActionID:    actionAwardSelect,
					Placeholder: &awardPlaceholder,
					Options:     options,
				},
				Label: plain("What award are they getting?"),
			},
			{
				Type:     "input",
				BlockID:  BlockNoteInput,
				Optional: true,
				Element: Element{
					Type:     "plain_text_input",
					ActionID: actionNoteInput,
				},
				Label: plain("Would you like to say something special to them?"),
			},
		},
	}, nil
}

// SelectedAward is one award chosen in the dialog.
type SelectedAward struct {
	ID    string
	Emoji string
}

// Submission is the parsed state of a submitted awards dialog.
type Submission struct {
	SenderID      string
	ChannelID     string
	SelectedUsers []string
	Awards        []SelectedAward
	Note          string
}

type submissionPayload struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	View struct {
		CallbackID      string `json:"callback_id"`
		PrivateMetadata string `json:"private_metadata"`
		State           struct {
			Values map[string]map[string]stateValue `json:"values"`
		} `json:"state"`
	} `json:"view"`
}

type stateValue struct {
	SelectedUsers   []string `json:"selected_users"`
	SelectedOptions []struct {
		Text  Text   `json:"text"`
		Value string `json:"value"`
	} `json:"selected_options"`
	Value string `json:"value"`
}

// ParseSubmission extracts the dialog state from a view_submission payload.
func ParseSubmission(body []byte) (*Submission, error) {
	var p submissionPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("modal: unmarshal submission: %w", err)
	}

	if p.View.CallbackID != CallbackID {
		return nil, fmt.Errorf("modal: unexpected callback id %q", p.View.CallbackID)
	}

	var meta metadata
	if err := json.Unmarshal([]byte(p.View.PrivateMetadata), &meta); err != nil {
		return nil, fmt.Errorf("modal: unmarshal metadata: %w", err)
	}

	sub := &Submission{
		SenderID:  p.User.ID,
		ChannelID: meta.ChannelID,
	}

	values := p.View.State.Values
	sub.SelectedUsers = values[BlockUserSelect][actionUserSelect].SelectedUsers
	sub.Note = values[BlockNoteInput][actionNoteInput].Value

	for _, opt := range values[BlockAwardSelect][actionAwardSelect].SelectedOptions {
		words := strings.Fields(opt.Text.Text)
		emoji := ""
		if len(words) > 0 {
			emoji = words[len(words)-1]
		}
		sub.Awards = append(sub.Awards, SelectedAward{
			ID:    opt.Value,
			Emoji: emoji,
		})
	}

	return sub, nil
}

// Validate applies the submission rules Slack's input elements cannot express.
// The returned map is keyed by block id, ready for a response_action=errors ack.
func (s *Submission) Validate(maxUsers, maxAwards int) map[string]string {
	errs := make(map[string]string)

	for _, u := range s.SelectedUsers {
		if u == s.SenderID {
			errs[BlockUserSelect] = "Sorry, please remove yourself from the list :)"
			break
		}
	}

	if _, ok := errs[BlockUserSelect]; !ok && len(s.SelectedUsers) > maxUsers {
		errs[BlockUserSelect] = fmt.Sprintf("Maximum number of users to select is %d.", maxUsers)
	}

	if len(s.Awards) > maxAwards {
		errs[BlockAwardSelect] = fmt.Sprintf("Maximum number of awards to select is %d.", maxAwards)
	}

	return errs
}
