package domain

const (
	EventNameAwardsRecorded = "awards.recorded"
)

// EventAwardsRecorded is published after one award submission has been
// written to the ledger as a single atomic batch.
type EventAwardsRecorded struct {
	// SenderID is the user who gave the awards.
	SenderID string
	// ChannelID is where the announcement should be posted.
	ChannelID string
	// ReceiverIDs are the awarded users, in selection order.
	ReceiverIDs []string
	// AwardEmojis are the emoji shortcodes of the given awards, in selection order.
	AwardEmojis []string
	// Note is the optional free text attached by the sender.
	Note string
}

func (EventAwardsRecorded) Name() string { return EventNameAwardsRecorded }
