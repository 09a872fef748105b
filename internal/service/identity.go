package service

import (
	"time"

	"github.com/huehive/collab-server-go/internal/model"
	"github.com/huehive/collab-server-go/internal/util"
)

// IdentityService maps whoever shows up at the door to a session participant.
// Authenticated accounts keep their email as display name; everyone else gets
// a stable anonymous handle. Both kinds draw their color from the same fixed
// eight-color pool so a participant looks identical on every screen.
type IdentityService struct{}

func NewIdentityService() *IdentityService {
	return &IdentityService{}
}

// ForAccount builds the participant identity of an authenticated account.
// The color is derived from the account id, so reconnects keep it.
func (s *IdentityService) ForAccount(account *model.Account) model.Participant {
	return model.Participant{
		ID:          account.ID,
		DisplayName: account.Email,
		Color:       util.ColorForID(account.ID),
		ConnectedAt: time.Now(),
	}
}

// Anonymous mints a fresh guest identity, e.g. "mellow-otter-42".
func (s *IdentityService) Anonymous() model.Participant {
	id := util.GenerateParticipantID()
	return model.Participant{
		ID:          id,
		DisplayName: util.GenerateHandle(),
		Color:       util.ColorForID(id),
		ConnectedAt: time.Now(),
	}
}

// Resume rebuilds a participant from a previous visit so a reconnecting
// client keeps its handle and color. Blank fields are filled as for a new
// guest.
func (s *IdentityService) Resume(id, displayName string) model.Participant {
	if id == "" {
		return s.Anonymous()
	}
	if displayName == "" {
		displayName = util.GenerateHandle()
	}
	return model.Participant{
		ID:          id,
		DisplayName: displayName,
		Color:       util.ColorForID(id),
		ConnectedAt: time.Now(),
	}
}
