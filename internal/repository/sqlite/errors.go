package sqlite

import (
	"errors"
	"strings"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// isConstraintViolation reports whether err is a SQLite constraint failure of
// the given extended code that mentions target (e.g. "users.email").
//
// The driver returns *sqlite.Error carrying the extended result code. Errors
// that reach us through other layers (wrapped, or from a test double) are
// matched on SQLite's message text instead, which is stable:
//
//	UNIQUE constraint failed: users.email
func isConstraintViolation(err error, code int, target string) bool {
	if err == nil {
		return false
	}

	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		// The low byte of an extended code is its primary code (SQLITE_CONSTRAINT).
		c := sqliteErr.Code()
		return (c == code || c&0xff == sqlite3.SQLITE_CONSTRAINT) &&
			strings.Contains(sqliteErr.Error(), target)
	}

	prefix := "UNIQUE constraint failed: "
	if code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		prefix = "FOREIGN KEY constraint failed"
		return strings.Contains(err.Error(), prefix)
	}
	return strings.Contains(err.Error(), prefix+target)
}

func isUniqueViolation(err error, column string) bool {
	return isConstraintViolation(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, column)
}

// SQLite's foreign key message never names the column, so any FK failure matches.
func isForeignKeyViolation(err error) bool {
	return isConstraintViolation(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY")
}
