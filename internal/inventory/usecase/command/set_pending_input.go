package command

import "context"

// SetPendingInputCommand records text typed against an item
type SetPendingInputCommand struct {
	ActorID string
	ItemID  string
	Input   string
}

// SetPendingInputHandler handles set pending input command
type SetPendingInputHandler struct {
	sessions SessionOpener
}

// NewSetPendingInputHandler creates a new set pending input handler
func NewSetPendingInputHandler(sessions SessionOpener) *SetPendingInputHandler {
	return &SetPendingInputHandler{sessions: sessions}
}

// Handle executes the set pending input command. Pending input is local to
// the session, so no permission is needed.
func (h *SetPendingInputHandler) Handle(ctx context.Context, cmd SetPendingInputCommand) error {
	s, err := h.sessions.Open(ctx, cmd.ActorID)
	if err != nil {
		return err
	}
	return s.Engine().SetPendingInput(cmd.ItemID, cmd.Input)
}
