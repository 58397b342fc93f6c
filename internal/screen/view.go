package screen

import (
	"github.com/wallet-profiles/internal/riskform"
	"github.com/wallet-profiles/internal/types"
)

// View is an immutable snapshot of everything needed to render the screen
type View struct {
	State             State
	Address           string
	SocialType        types.SocialType
	Handle            string
	Placeholder       string
	Rows              []riskform.Row
	Total             int
	Loading           bool
	Busy              bool
	HasProfile        bool
	CanSubmit         bool
	ValidationMessage string
	SubmitError       string
	SubmitLabel       string
	DeleteLabel       string
	ShowTerms         bool
}

// Connected reports whether a wallet is attached
func (v View) Connected() bool {
	return v.State != StateDisconnected
}

// View returns a snapshot of the current screen
func (s *Screen) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	saving := s.op == opSubmit || s.op == opDelete
	v := View{
		State:             s.stateLocked(),
		Address:           s.address,
		SocialType:        s.social.Type,
		Handle:            s.social.Handle,
		Placeholder:       "your_" + string(s.social.Type) + "_handle",
		Rows:              s.form.Rows(),
		Total:             s.total,
		Loading:           s.form.Loading(),
		Busy:              s.op != opNone,
		HasProfile:        s.exists,
		CanSubmit:         s.canSubmitLocked(),
		ValidationMessage: s.validationMessageLocked(),
		SubmitError:       s.submitError,
		ShowTerms:         !s.exists,
	}

	switch {
	case saving:
		v.SubmitLabel = "Saving..."
	case s.exists:
		v.SubmitLabel = "Update Profile"
	default:
		v.SubmitLabel = "Create Profile"
	}
	if saving {
		v.DeleteLabel = "Deleting..."
	} else {
		v.DeleteLabel = "Delete Profile"
	}
	return v
}
