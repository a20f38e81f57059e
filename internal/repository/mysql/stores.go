package mysql

import (
	"database/sql"

	"github.com/parkwise/parkwise/internal/repository"
)

// NewStores bundles every MySQL-backed repository over one DB handle.
func NewStores(db *sql.DB) repository.Stores {
	return repository.Stores{
		Garages:    NewGarageRepo(db),
		Spots:      NewSpotRepo(db),
		Vehicles:   NewVehicleRepo(db),
		Sessions:   NewSessionRepo(db),
		Attendants: NewAttendantRepo(db),
	}
}
