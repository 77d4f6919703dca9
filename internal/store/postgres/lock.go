package postgres

import "gorm.io/gorm/clause"

// lockShare keeps the parent row from being deleted until the child insert
// commits.
func lockShare() clause.Locking {
	return clause.Locking{Strength: "SHARE"}
}
