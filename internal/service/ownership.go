package service

// Authorize allows a mutation only when the viewer authored the target.
// Anonymous viewers are always denied.
func Authorize(v Viewer, authorID int64) error {
	if !SelfView(v, authorID) {
		return ErrAuthorizationDenied
	}
	return nil
}
