package repository

import "gorm.io/gorm"

// conn returns tx when the caller is inside a transaction, otherwise the repository's handle
func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
