package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victornm/kudos/internal/domain"
	"github.com/victornm/kudos/internal/modal"
)

type interactionRequest struct {
	Payload string `form:"payload"`
}

// HandleInteraction processes the awards modal submission. Validation
// failures are returned synchronously in the ack so Slack renders them
// inline; recording and announcing happen in the background.
func (a *API) HandleInteraction(c *gin.Context) {
	var req interactionRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	sub, err := modal.ParseSubmission([]byte(req.Payload))
	if err != nil {
		// Not the awards dialog, nothing for us to do.
		slog.InfoContext(c.Request.Context(), fmt.Sprintf("api: ignoring interaction: %v", err))
		c.Status(http.StatusOK)
		return
	}

	if errs := sub.Validate(a.maxUsers, a.maxAwards); len(errs) > 0 {
		c.JSON(http.StatusOK, gin.H{
			"response_action": "errors",
			"errors":          errs,
		})
		return
	}

	a.async(c.Request.Context(), func(ctx context.Context) {
		a.recordSubmission(ctx, sub)
	})

	c.Status(http.StatusOK)
}

func (a *API) recordSubmission(ctx context.Context, sub *modal.Submission) {
	if err := a.msgr.PostEphemeral(ctx, sub.ChannelID, sub.SenderID, msgWorking); err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("api: send working notice: %v", err))
	}

	submissions := make([]domain.Submission, 0, len(sub.SelectedUsers)*len(sub.Awards))
	for _, userID := range sub.SelectedUsers {
		for _, award := range sub.Awards {
			submissions = append(submissions, domain.Submission{
				UserID:  userID,
				AwardID: award.ID,
			})
		}
	}

	if err := a.scs.RecordAwards(ctx, submissions); err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("api: record awards: %v", err))
		a.tellError(ctx, sub.ChannelID, sub.SenderID)
		return
	}

	emojis := make([]string, 0, len(sub.Awards))
	for _, award := range sub.Awards {
		emojis = append(emojis, award.Emoji)
	}

	a.bus.Publish(ctx, domain.EventAwardsRecorded{
		SenderID:    sub.SenderID,
		ChannelID:   sub.ChannelID,
		ReceiverIDs: sub.SelectedUsers,
		AwardEmojis: emojis,
		Note:        sub.Note,
	})
}
