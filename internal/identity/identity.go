package identity

// Actor is the authenticated caller of an operation. It is passed explicitly
// into every permission-checked operation instead of being looked up from
// ambient state.
type Actor struct {
	PlayerID     string
	Email        string
	IsAdmin      bool
	IsSuperAdmin bool
}

// Elevated reports whether the actor holds any admin role.
func (a Actor) Elevated() bool {
	return a.IsAdmin || a.IsSuperAdmin
}

// Is reports whether the actor is the given player.
func (a Actor) Is(playerID string) bool {
	return playerID != "" && a.PlayerID == playerID
}
