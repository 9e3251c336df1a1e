package views

// ViewState contains common state shared by all view models.
// Embed this struct in view models to get width/height and message handling.
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

// SetSize updates the view dimensions
func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetMessage sets a message to display in the view
func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

// SetError displays err as an error message
func (s *ViewState) SetError(err error) {
	s.SetMessage(err.Error(), true)
}

// ClearMessage clears the current message
func (s *ViewState) ClearMessage() {
	s.Message = ""
	s.MessageErr = false
}

// pageSizeFor returns how many list rows fit in height after reserved lines
func pageSizeFor(height, reserved int) int {
	if n := height - reserved; n > 3 {
		return n
	}
	return 3
}

// Messages shared between views and the app

// errMsg reports a failed background command
type errMsg struct {
	err error
}

// successMsg reports a completed background command
type successMsg struct {
	message string
}

// OpenEntityMsg asks the app to open the history of an entity
type OpenEntityMsg struct {
	EntityID string
}

// OpenSpecMsg asks the app to show a specification document in the editor
type OpenSpecMsg struct {
	Name string
	Doc  []byte
}

// ResetDoneMsg reports a completed reset
type ResetDoneMsg struct {
	Message string
}

type SwitchToEntitiesMsg struct{}

type SwitchToHistoryMsg struct{}

type SwitchToResetMsg struct{}

type SwitchToHelpMsg struct{}

type CloseHelpMsg struct{}
