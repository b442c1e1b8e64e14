package gameservice

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Recoverable domain errors. Handlers convert these to ephemeral user
// messages; they never terminate event handling.
var (
	ErrGameNotFound       = errors.New("game not found")
	ErrRoundNotFound      = errors.New("round not found")
	ErrAlreadySignedUp    = errors.New("already signed up for this game")
	ErrSignupClosed       = errors.New("signups are closed, the game has started")
	ErrNotSignedUp        = errors.New("no signup found for this game")
	ErrNotParticipant     = errors.New("not a participant in this game")
	ErrSubmissionClosed   = errors.New("the round is not open for submissions")
	ErrGameAlreadyStarted = errors.New("the game has already started")
	ErrGameCanceled       = errors.New("the game was canceled")
	ErrNotGameAdmin       = errors.New("only the game admin may do that")
)

// ValidationErrors reports why an allocation was rejected. General covers
// the whole submission; Fields addresses individual entries by zero-based
// index. It is a value returned to the user, never a process failure.
type ValidationErrors struct {
	General string
	Fields  map[int]string
}

func (e *ValidationErrors) Error() string {
	if e.General != "" {
		return e.General
	}
	indices := make([]int, 0, len(e.Fields))
	for i := range e.Fields {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	parts := make([]string, 0, len(indices))
	for _, i := range indices {
		parts = append(parts, fmt.Sprintf("field %d: %s", i+1, e.Fields[i]))
	}
	return strings.Join(parts, "; ")
}
