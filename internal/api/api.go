// Package api exposes the bot's inbound HTTP surface: the slash command and
// the modal interaction callback.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/victornm/kudos/internal/domain"
	"github.com/victornm/kudos/internal/errors"
	"github.com/victornm/kudos/internal/event"
	"github.com/victornm/kudos/internal/modal"
	"github.com/victornm/kudos/internal/scorecard"
	"github.com/victornm/kudos/internal/telemetry"
)

const (
	// Slack requires command and interaction acks within 3 seconds, so
	// the real work continues after the ack with its own deadline.
	asyncTimeout = 60 * time.Second

	msgError      = "Something went wrong :cry: Please try again later :rewind:"
	msgWorking    = ":man-biking: Working on it, please wait. :woman-biking:"
	msgNoData     = "Sorry, I don't have any data for that yet :cry:"
	msgNoMention  = "You didn't specify which user scorecard you would like to see. Please try again."
	helpTemplate  = "To give someone one or multiple awards you can use `/kudos`.\nTo see the leaderboard you can use `/kudos leaderboard`. It will display top %d performers!\nTo see which awards certain user currently have you can use `/kudos scorecard @someone`. Note that if you mention multiple users, only the first one mentioned will be displayed."
	scorecardAlt  = "Scorecard image"
	leaderboardFm = ":sunglasses: Requested by the fabulous <@%s>! :sunglasses:\n:fireworks: Kudos Top %d Leaderboard! :fireworks:"
)

// mentionRe matches the raw form of a user mention in slash command text.
var mentionRe = regexp.MustCompile(`<@(\w+)\|`)

// Messenger is the outbound chat surface the handlers need.
type Messenger interface {
	PostEphemeral(ctx context.Context, channelID, userID, text string) error
	PostEphemeralImage(ctx context.Context, channelID, userID, text, imageURL, altText string) error
	PostImage(ctx context.Context, channelID, text, imageURL, altText string) error
	OpenView(ctx context.Context, triggerID string, view modal.View) error
}

// Uploader publishes a rendered image and returns a URL chat clients can load.
type Uploader interface {
	UploadImage(ctx context.Context, data []byte) (string, error)
}

// Catalog lists the awards offered in the modal.
type Catalog interface {
	LoadCatalog(ctx context.Context) ([]domain.Award, error)
}

type Config struct {
	Router   gin.IRoutes
	EventBus *event.Bus

	Scorecard *scorecard.Service
	Catalog   Catalog
	Messenger Messenger
	Uploader  Uploader

	LeaderboardSize int
	MaxUsers        int
	MaxAwards       int
}

type API struct {
	bus *event.Bus

	scs      *scorecard.Service
	catalog  Catalog
	msgr     Messenger
	uploader Uploader

	leaderboardSize int
	maxUsers        int
	maxAwards       int
}

func New(c Config) *API {
	a := &API{
		bus:             c.EventBus,
		scs:             c.Scorecard,
		catalog:         c.Catalog,
		msgr:            c.Messenger,
		uploader:        c.Uploader,
		leaderboardSize: c.LeaderboardSize,
		maxUsers:        c.MaxUsers,
		maxAwards:       c.MaxAwards,
	}

	c.Router.POST("/slack/command", a.HandleCommand)
	c.Router.POST("/slack/interactions", a.HandleInteraction)

	return a
}

type commandRequest struct {
	Text      string `form:"text"`
	UserID    string `form:"user_id"`
	ChannelID string `form:"channel_id"`
	TriggerID string `form:"trigger_id"`
}

// HandleCommand acks the slash command immediately and dispatches the
// requested flow in the background.
func (a *API) HandleCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	kind := commandKind(req.Text)
	telemetry.CountCommand(kind)
	slog.InfoContext(c.Request.Context(), fmt.Sprintf("api: got %s request from [%s]", kind, req.UserID))

	a.async(c.Request.Context(), func(ctx context.Context) {
		switch kind {
		case "help":
			a.handleHelp(ctx, req)
		case "award":
			a.handleAwardRequest(ctx, req)
		case "leaderboard":
			a.handleLeaderboard(ctx, req)
		case "scorecard":
			a.handleScorecard(ctx, req)
		}
	})

	c.Status(http.StatusOK)
}

func commandKind(text string) string {
	switch t := strings.ToLower(strings.TrimSpace(text)); {
	case t == "help":
		return "help"
	case t == "":
		return "award"
	case t == "leaderboard":
		return "leaderboard"
	case strings.Contains(t, "scorecard"):
		return "scorecard"
	default:
		return "unknown"
	}
}

func (a *API) handleHelp(ctx context.Context, req commandRequest) {
	text := fmt.Sprintf(helpTemplate, a.leaderboardSize)
	if err := a.msgr.PostEphemeral(ctx, req.ChannelID, req.UserID, "How to use Kudos:\n"+text); err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("api: send help message: %v", err))
	}
}

func (a *API) handleAwardRequest(ctx context.Context, req commandRequest) {
	awards, err := a.catalog.LoadCatalog(ctx)
	if err != nil || len(awards) == 0 {
		slog.ErrorContext(ctx, fmt.Sprintf("api: load award catalog: %v", err))
		a.tellError(ctx, req.ChannelID, req.UserID)
		return
	}

	view, err := modal.BuildAwardsView(req.ChannelID, awards, a.maxUsers, a.maxAwards)
	if err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("api: build awards view: %v", err))
		a.tellError(ctx, req.ChannelID, req.UserID)
		return
	}

	if err := a.msgr.OpenView(ctx, req.TriggerID, view); err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("api: open awards view: %v", err))
		a.tellError(ctx, req.ChannelID, req.UserID)
	}
}

func (a *API) handleLeaderboard(ctx context.Context, req commandRequest) {
	imageURL, ok := a.generateScorecardURL(ctx, req, scorecard.GenerateScorecardRequest{
		Limit: a.leaderboardSize,
	})
	if !ok {
		return
	}

	text := fmt.Sprintf(leaderboardFm, req.UserID, a.leaderboardSize)
	if err := a.msgr.PostImage(ctx, req.ChannelID, text, imageURL, scorecardAlt); err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("api: post leaderboard: %v", err))
		a.tellError(ctx, req.ChannelID, req.UserID)
	}
}

func (a *API) handleScorecard(ctx context.Context, req commandRequest) {
	m := mentionRe.FindStringSubmatch(req.Text)
	if m == nil {
		if err := a.msgr.PostEphemeral(ctx, req.ChannelID, req.UserID, msgNoMention); err != nil {
			slog.ErrorContext(ctx, fmt.Sprintf("api: send scorecard hint: %v", err))
		}
		return
	}
	target := m[1]

	imageURL, ok := a.generateScorecardURL(ctx, req, scorecard.GenerateScorecardRequest{
		ScopeUserID: target,
	})
	if !ok {
		return
	}

	text := fmt.Sprintf("Scorecard for <@%s>! :sunglasses:", target)
	if err := a.msgr.PostEphemeralImage(ctx, req.ChannelID, req.UserID, text, imageURL, scorecardAlt); err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("api: post scorecard: %v", err))
		a.tellError(ctx, req.ChannelID, req.UserID)
	}
}

// generateScorecardURL runs the rendering pipeline and uploads the result.
// It reports user-facing failures itself; the false return means stop.
func (a *API) generateScorecardURL(ctx context.Context, req commandRequest, gen scorecard.GenerateScorecardRequest) (string, bool) {
	if err := a.msgr.PostEphemeral(ctx, req.ChannelID, req.UserID, msgWorking); err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("api: send working notice: %v", err))
	}

	img, err := a.scs.GenerateScorecard(ctx, gen)
	if err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("api: generate scorecard: %v", err))

		msg := msgError
		if errors.Is(err, errors.CodeNotFound) {
			msg = msgNoData
		}
		if err := a.msgr.PostEphemeral(ctx, req.ChannelID, req.UserID, msg); err != nil {
			slog.ErrorContext(ctx, fmt.Sprintf("api: send failure notice: %v", err))
		}
		return "", false
	}

	imageURL, err := a.uploader.UploadImage(ctx, img)
	if err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("api: upload scorecard image: %v", err))
		a.tellError(ctx, req.ChannelID, req.UserID)
		return "", false
	}

	return imageURL, true
}

func (a *API) tellError(ctx context.Context, channelID, userID string) {
	if err := a.msgr.PostEphemeral(ctx, channelID, userID, msgError); err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("api: send error notice: %v", err))
	}
}

// async runs fn detached from the request so the ack can return right away.
func (a *API) async(ctx context.Context, fn func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)

	go func() {
		ctx, cancel := context.WithTimeout(ctx, asyncTimeout)
		defer cancel()

		fn(ctx)
	}()
}
