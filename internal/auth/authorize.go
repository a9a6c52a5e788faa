package auth

// Authorize reports whether the presented token may act on a resource owned
// by ownerID when the operation demands the required authority floor.
//
// Ownership wins outright: a subject acting on its own resource bypasses the
// floor entirely, so a plain user can still edit their own account even when
// the operation nominally requires Admin. Verification failure and an
// insufficient level both collapse into a plain false; callers never learn
// which one it was.
func (m *TokenManager) Authorize(token string, ownerID int64, required Authority) bool {
	cred, err := m.Verify(token)
	if err != nil {
		return false
	}
	return cred.SubjectID == ownerID || cred.Level.AtLeast(required)
}

// AuthorizeLevel is the ownership-agnostic variant of Authorize, for
// operations that have no natural resource owner (creation, listing).
// There is no sentinel owner id; callers that lack an owner must use this.
func (m *TokenManager) AuthorizeLevel(token string, required Authority) bool {
	cred, err := m.Verify(token)
	if err != nil {
		return false
	}
	return cred.Level.AtLeast(required)
}
