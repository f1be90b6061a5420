package service

// Viewer is the identity a request acts as. The zero value is the anonymous viewer.
type Viewer struct {
	ID       int64
	Username string
}

// Anonymous returns the viewer used for unauthenticated requests.
func Anonymous() Viewer {
	return Viewer{}
}

// IsAnonymous reports whether the viewer is not logged in.
func (v Viewer) IsAnonymous() bool {
	return v.ID == 0
}
