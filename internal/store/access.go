package store

import (
	"fmt"
	"os"
)

// AccessResult reports whether the message store can be read. When it cannot,
// Error carries a remediation message naming the step the user must take, not
// just the failure.
type AccessResult struct {
	Accessible bool   `json:"accessible"`
	Error      string `json:"error,omitempty"`
}

// CheckAccess verifies the store file exists, is readable, and opens as a
// SQLite database. It returns at the first failing step. This is a pure
// diagnostic: errors become a structured result instead of propagating, and
// the only side effect is opening and immediately closing a probe connection.
func (s *Store) CheckAccess() AccessResult {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return AccessResult{
			Error: fmt.Sprintf("iMessage database not found at %s. Has the Messages app been used on this Mac?", s.path),
		}
	}

	f, err := os.Open(s.path)
	if err != nil {
		return AccessResult{
			Error: "Cannot read the iMessage database. Grant Full Disk Access to this process in System Settings > Privacy & Security.",
		}
	}
	f.Close()

	db, err := s.OpenReadOnly()
	if err != nil {
		return AccessResult{
			Error: fmt.Sprintf("Cannot open the iMessage database. Grant Full Disk Access to this process in System Settings > Privacy & Security. (%v)", err),
		}
	}
	db.Close()

	return AccessResult{Accessible: true}
}
