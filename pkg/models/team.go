package models

import (
	"time"

	"github.com/google/uuid"
)

// Team groups users. Its member set is authoritative for every Application
// whose TeamID references it.
type Team struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	MemberIDs []string  `db:"member_ids" json:"memberIds"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// HasMember reports whether userID belongs to the team.
func (t *Team) HasMember(userID string) bool {
	for _, m := range t.MemberIDs {
		if m == userID {
			return true
		}
	}
	return false
}
