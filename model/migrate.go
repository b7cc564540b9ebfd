package model

import (
	"fmt"

	"gorm.io/gorm"
)

// Tables lists the models of the sql backend in creation order.
func Tables() []any {
	return []any{&Item{}, &Character{}, &Party{}, &Setting{}, &AuditLog{}}
}

// AutoMigrate creates or updates every table, naming the one that failed.
func AutoMigrate(db *gorm.DB) error {
	for _, m := range Tables() {
		if err := db.AutoMigrate(m); err != nil {
			stmt := &gorm.Statement{DB: db}
			if perr := stmt.Parse(m); perr == nil {
				return fmt.Errorf("migrate %s: %w", stmt.Schema.Table, err)
			}
			return fmt.Errorf("migrate %T: %w", m, err)
		}
	}
	return nil
}
