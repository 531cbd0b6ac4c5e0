package entitlement

// Entitlement is what a caller is allowed to do. The zero value is an
// anonymous free player.
type Entitlement struct {
	DeviceId string
	Premium  bool
}

type Policy struct {
	// FreeExtensions is how many time extensions a free player gets per game.
	FreeExtensions int
	// ExtensionSeconds is added when an add-time request names no duration.
	ExtensionSeconds int
}

func (p Policy) AllowExtension(e Entitlement, used int) bool {
	return e.Premium || used < p.FreeExtensions
}

type TokenVerifier interface {
	Verify(token string) (Entitlement, error)
}
