package gamehandlers

import (
	"fmt"
	"time"

	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// Ephemeral replies sent back to the requesting user. Channel-wide
// announcements live with the service; these only ever reach one person.

func signupSuccessMessage(gameID gametypes.GameID, gameStart time.Time) string {
	return fmt.Sprintf("You signed up for Blotto game %d! Round 1 will begin %s.", gameID, gameStart.Format(time.RFC1123))
}

func signupDuplicateMessage(gameID gametypes.GameID) string {
	return fmt.Sprintf("You have already signed up for game %d. Glad you're excited, though!", gameID)
}

const signupClosedMessage = "Sorry, the game you signed up for has already begun. Try starting a new game!"

func withdrawSuccessMessage(gameID gametypes.GameID) string {
	return fmt.Sprintf("Your signup has been removed for Blotto game %d. Sorry to see you go :cry:", gameID)
}

const withdrawClosedMessage = "The game has already started, so you're locked in. Good luck!"

func withdrawNotSignedUpMessage(gameID gametypes.GameID) string {
	return fmt.Sprintf("I can't find any record indicating you signed up for game %d; if you think this is a mistake, reach out to the game admin.", gameID)
}

const submissionAcceptedMessage = "Strategy accepted!"

const notParticipantMessage = "It looks like you're not signed up for this game."

func submissionRejectedMessage(reason string) string {
	return fmt.Sprintf("Your strategy was rejected: %s", reason)
}

func createRejectedMessage(reason string) string {
	return fmt.Sprintf("Couldn't create the game: %s", reason)
}

const submissionClosedMessage = "This round is not open for submissions."

func gameCanceledMessage(gameID gametypes.GameID) string {
	return fmt.Sprintf("Game %d has been canceled.", gameID)
}

const notAdminMessage = "Only the game admin can cancel a game."

const cancelTooLateMessage = "The game has already started and can no longer be canceled."

func unknownGameMessage(gameID gametypes.GameID) string {
	return fmt.Sprintf("I can't find game %d. Double-check the game number.", gameID)
}
