package participant

// CreateParticipantRequest carries the fields for a joining player.
type CreateParticipantRequest struct {
	SessionCode string
	Name        string
}
