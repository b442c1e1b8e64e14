package gamehandlers

import "github.com/ThreeDotsLabs/watermill/message"

// Handlers is the set of message consumers the router registers for the game
// module.
type Handlers interface {
	HandleCreateGameRequest(msg *message.Message) error
	HandleGameAnnounced(msg *message.Message) error
	HandleSignupRequest(msg *message.Message) error
	HandleWithdrawRequest(msg *message.Message) error
	HandleSubmissionRequest(msg *message.Message) error
	HandleCancelGameRequest(msg *message.Message) error
	HandleGameStart(msg *message.Message) error
	HandleRoundEnd(msg *message.Message) error
}
