package auth

import "github.com/sakif/portfolio-blog/internal/apperror"

// AdminUserID is the id of the one account allowed to create, edit and delete
// posts: the first account ever registered. There is no role table.
//
// The store assigns ids with AUTOINCREMENT, so id 1 is never reused even if
// rows were ever removed by hand.
const AdminUserID int64 = 1

// IsAdmin reports whether c is authenticated as the first registered user.
func IsAdmin(c Caller) bool {
	return c.IsAuthenticated() && c.User.ID == AdminUserID
}

// RequireUser returns apperror.ErrUnauthenticated for anonymous callers.
func RequireUser(c Caller) error {
	if !c.IsAuthenticated() {
		return apperror.Unauthenticated("please log in to continue")
	}
	return nil
}

// RequireAdmin guards every post-mutating operation.
//
// The two failures are distinct on purpose: anonymous callers get
// ErrUnauthenticated (the handler sends them to /login), logged-in non-admins
// get ErrForbidden (the handler answers 403).
func RequireAdmin(c Caller) error {
	if err := RequireUser(c); err != nil {
		return err
	}
	if c.User.ID != AdminUserID {
		return apperror.Forbidden("only the site owner can do that")
	}
	return nil
}
