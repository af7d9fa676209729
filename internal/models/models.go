package models

// All returns every persisted model, in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Account{},
		&Goal{},
		&Transaction{},
		&PurchaseRequest{},
		&InterestConfig{},
		&Progress{},
		&AccountBadge{},
		&AuditLog{},
	}
}
