package gameservice

import (
	"fmt"
	"strings"
	"time"

	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// Player-facing message templates. Kept together so the bot's voice stays
// consistent across handlers.

func newGameAnnouncement(admin gametypes.UserID, gameID gametypes.GameID, numRounds int, roundLength time.Duration, signupClose time.Time) string {
	return fmt.Sprintf(`<@%s> has started a new game of Blotto!

Raise your hands :man-raising-hand: :woman-raising-hand: to test your grit and game theory over the course of %d battles in a round-robin style tournament. Each round will have a submission window of %s.

Rules for each battle will be announced at the start of the submission window for that round. The signup period for Game %d will close %s.`,
		admin, numRounds, roundLength, gameID, signupClose.Format(time.RFC1123))
}

func gameStartAnnouncement(gameID gametypes.GameID, roundLength time.Duration) string {
	return fmt.Sprintf(`Game %d has begun! As a reminder, in each round you will have %s to submit your strategy.

Rules will only be posted at the very start of the round, and results will be posted as each round closes.

Good luck! :fist:`, gameID, roundLength)
}

func gameAutoCancelAnnouncement(gameID gametypes.GameID) string {
	return fmt.Sprintf(`Game %d has been called off. Not enough players signed up to field a tournament.

Keep an eye out for the next one!`, gameID)
}

func roundStartAnnouncement(gameID gametypes.GameID, roundNumber int, roundEnd time.Time, rulesText string) string {
	return fmt.Sprintf(`Game %d round %d has started! Participants have until %s to get their strategies submitted.

The rules for this round are as follows:
%s`, gameID, roundNumber, roundEnd.Format(time.RFC1123), rulesText)
}

func roundEndAnnouncement(gameID gametypes.GameID, roundNumber int, results []gametypes.RoundResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Game %d round %d has ended!\n\nHere's a snapshot of the scores for this round:\n", gameID, roundNumber)
	top := results
	if len(top) > 3 {
		top = top[:3]
	}
	for _, r := range top {
		fmt.Fprintf(&b, "%d. <@%s>: %.0f\n", r.Rank, r.UserID, r.Score)
	}
	return b.String()
}

func gameEndAnnouncement(gameID gametypes.GameID, winner gametypes.GameResult) string {
	return fmt.Sprintf(`Game %d has ended! Congratulations to <@%s>, you've placed first with a score of %.1f!

Thanks for playing everyone.`, gameID, winner.UserID, winner.Score)
}
