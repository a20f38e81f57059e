// Package repository defines the store contracts consumed by the
// check-in/check-out core together with the sentinel errors shared by
// every implementation.  The sentinels let callers distinguish failure
// scenarios with errors.Is instead of matching on message text; the
// interfaces themselves live in repository.go and are implemented by
// the mysql and memory subpackages.
package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrNoActiveSession is returned when a plate has no active parking
// session, for example when check-out is requested for a vehicle that
// never checked in.
var ErrNoActiveSession = errors.New("no active session")

// ErrVehicleParked is returned by the vehicle store's conditional
// create-or-reactivate when a record for the plate already has status
// parked.  It is how the loser of a duplicate check-in race fails
// deterministically.
var ErrVehicleParked = errors.New("vehicle already parked")

// ErrDuplicate is returned when an insert collides with an existing
// record, such as creating a garage, spot or attendant twice.
var ErrDuplicate = errors.New("record already exists")

// ErrSpotOccupied is returned when a status change is requested for a
// spot that currently has an occupant, such as taking an occupied spot
// out of service.
var ErrSpotOccupied = errors.New("spot is occupied")
