package models

// ModelsToAutoMigrate returns the models in dependency order. Used by tests
// and local SQLite setups; production schemas come from internal/migrate.
func ModelsToAutoMigrate() []interface{} {
	return []interface{}{
		&Company{},
		&AuthUser{},
		&Profile{},
		&Category{},
		&Client{},
		&Ticket{},
		&TicketComment{},
		&NotificationPreference{},
	}
}
