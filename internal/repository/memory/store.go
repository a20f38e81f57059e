// Package memory provides an in-memory reference implementation of
// every repository contract, guarded by a single mutex.  It backs the
// core tests and the DB-less run mode (STORE_DRIVER=memory).  Because
// the lock covers each method in full, every operation is atomic with
// respect to the others, which is exactly the per-record atomicity the
// contracts demand; no method holds the lock across another store
// call.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/parkwise/parkwise/internal/model"
	"github.com/parkwise/parkwise/internal/repository"
)

// Store holds all records in maps keyed the same way the MySQL schema
// keys its tables.  Methods hand out copies, never internal pointers,
// so callers cannot mutate shared state outside the lock.  Obtain the
// typed repositories through Stores.
type Store struct {
	mu sync.Mutex

	garages    map[string]*model.Garage             // garage id -> garage
	spots      map[string]map[string]*model.Spot    // garage id -> spot id -> spot
	vehicles   map[string]map[string]*model.Vehicle // garage id -> plate -> vehicle
	sessions   map[string]*model.Session            // session id -> session
	attendants map[string]*model.Attendant          // email -> attendant

	nextVehicleID   uint64
	nextAttendantID uint64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		garages:    make(map[string]*model.Garage),
		spots:      make(map[string]map[string]*model.Spot),
		vehicles:   make(map[string]map[string]*model.Vehicle),
		sessions:   make(map[string]*model.Session),
		attendants: make(map[string]*model.Attendant),
	}
}

// Stores returns the repository bundle backed by this store.
func (s *Store) Stores() repository.Stores {
	return repository.Stores{
		Garages:    &GarageRepo{s},
		Spots:      &SpotRepo{s},
		Vehicles:   &VehicleRepo{s},
		Sessions:   &SessionRepo{s},
		Attendants: &AttendantRepo{s},
	}
}

// GarageRepo implements repository.GarageRepository.
type GarageRepo struct{ s *Store }

// SpotRepo implements repository.SpotRepository.
type SpotRepo struct{ s *Store }

// VehicleRepo implements repository.VehicleRepository.
type VehicleRepo struct{ s *Store }

// SessionRepo implements repository.SessionRepository.
type SessionRepo struct{ s *Store }

// AttendantRepo implements repository.AttendantRepository.
type AttendantRepo struct{ s *Store }

// --- garages ---

func (r *GarageRepo) Create(ctx context.Context, g *model.Garage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.garages[g.ID]; ok {
		return repository.ErrDuplicate
	}
	now := time.Now().UTC()
	cp := *g
	cp.CreatedAt, cp.UpdatedAt = now, now
	r.s.garages[g.ID] = &cp
	*g = cp
	return nil
}

func (r *GarageRepo) FindByID(ctx context.Context, id string) (*model.Garage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.garages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *GarageRepo) List(ctx context.Context) ([]model.Garage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Garage, 0, len(r.s.garages))
	for _, g := range r.s.garages {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- spots ---

func (r *SpotRepo) Create(ctx context.Context, spot *model.Spot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	bucket := r.s.spots[spot.GarageID]
	if bucket == nil {
		bucket = make(map[string]*model.Spot)
		r.s.spots[spot.GarageID] = bucket
	}
	id := spot.ID()
	if _, ok := bucket[id]; ok {
		return repository.ErrDuplicate
	}
	now := time.Now().UTC()
	cp := cloneSpot(spot)
	if cp.Status == "" {
		cp.Status = model.SpotAvailable
	}
	cp.CreatedAt, cp.UpdatedAt = now, now
	bucket[id] = cp
	*spot = *cloneSpot(cp)
	return nil
}

func (r *SpotRepo) FindByID(ctx context.Context, garageID, spotID string) (*model.Spot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sp, ok := r.s.spots[garageID][spotID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneSpot(sp), nil
}

func (r *SpotRepo) FindAvailable(ctx context.Context, garageID string, types []model.SpotType) ([]model.Spot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := typeSet(types)
	var out []model.Spot
	for _, sp := range r.s.spots[garageID] {
		if sp.Status != model.SpotAvailable {
			continue
		}
		if want != nil && !want[sp.Type] {
			continue
		}
		out = append(out, *cloneSpot(sp))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (r *SpotRepo) Reserve(ctx context.Context, garageID, spotID, plate string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sp, ok := r.s.spots[garageID][spotID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if sp.Status != model.SpotAvailable {
		return false, nil
	}
	p := plate
	sp.Status = model.SpotOccupied
	sp.OccupantPlate = &p
	sp.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *SpotRepo) Release(ctx context.Context, garageID, spotID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sp, ok := r.s.spots[garageID][spotID]
	if !ok {
		return repository.ErrNotFound
	}
	if sp.Status == model.SpotOccupied {
		sp.Status = model.SpotAvailable
		sp.OccupantPlate = nil
		sp.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *SpotRepo) SetStatus(ctx context.Context, garageID, spotID string, status model.SpotStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sp, ok := r.s.spots[garageID][spotID]
	if !ok {
		return repository.ErrNotFound
	}
	if sp.Status == model.SpotOccupied {
		return repository.ErrSpotOccupied
	}
	sp.Status = status
	sp.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *SpotRepo) ListByGarage(ctx context.Context, garageID string) ([]model.Spot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Spot, 0, len(r.s.spots[garageID]))
	for _, sp := range r.s.spots[garageID] {
		out = append(out, *cloneSpot(sp))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (r *SpotRepo) Stats(ctx context.Context, garageID string, types []model.SpotType) (*model.AvailabilitySnapshot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := typeSet(types)
	snap := &model.AvailabilitySnapshot{
		GarageID:   garageID,
		BySpotType: make(map[model.SpotType]model.SpotTypeCount),
	}
	for _, sp := range r.s.spots[garageID] {
		if want != nil && !want[sp.Type] {
			continue
		}
		snap.Total++
		c := snap.BySpotType[sp.Type]
		c.Total++
		switch sp.Status {
		case model.SpotAvailable:
			snap.Available++
			c.Available++
		case model.SpotOccupied:
			snap.Occupied++
		case model.SpotOutOfService:
			snap.OutOfService++
		}
		snap.BySpotType[sp.Type] = c
	}
	return snap, nil
}

// --- vehicles ---

func (r *VehicleRepo) FindByPlate(ctx context.Context, garageID, plate string) (*model.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vehicles[garageID][plate]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneVehicle(v), nil
}

func (r *VehicleRepo) CreateOrReactivate(ctx context.Context, garageID, plate, spotID string, vt model.VehicleType, rate model.RateType) (*model.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	bucket := r.s.vehicles[garageID]
	if bucket == nil {
		bucket = make(map[string]*model.Vehicle)
		r.s.vehicles[garageID] = bucket
	}
	now := time.Now().UTC()
	if v, ok := bucket[plate]; ok {
		if v.Status == model.VehicleParked {
			return nil, repository.ErrVehicleParked
		}
		sid := spotID
		v.Status = model.VehicleParked
		v.SpotID = &sid
		v.Type = vt
		v.RateType = rate
		v.UpdatedAt = now
		return cloneVehicle(v), nil
	}
	r.s.nextVehicleID++
	sid := spotID
	v := &model.Vehicle{
		ID:        r.s.nextVehicleID,
		GarageID:  garageID,
		Plate:     plate,
		Type:      vt,
		RateType:  rate,
		Status:    model.VehicleParked,
		SpotID:    &sid,
		CreatedAt: now,
		UpdatedAt: now,
	}
	bucket[plate] = v
	return cloneVehicle(v), nil
}

func (r *VehicleRepo) MarkDeparted(ctx context.Context, garageID, plate string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vehicles[garageID][plate]
	if !ok {
		return repository.ErrNotFound
	}
	v.Status = model.VehicleDeparted
	v.SpotID = nil
	v.UpdatedAt = time.Now().UTC()
	return nil
}

// --- sessions ---

func (r *SessionRepo) Create(ctx context.Context, sess *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sessions[sess.ID]; ok {
		return repository.ErrDuplicate
	}
	now := time.Now().UTC()
	cp := cloneSession(sess)
	cp.CreatedAt, cp.UpdatedAt = now, now
	r.s.sessions[sess.ID] = cp
	*sess = *cloneSession(cp)
	return nil
}

func (r *SessionRepo) Close(ctx context.Context, sessionID string, exit time.Time) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[sessionID]
	if !ok || sess.Status != model.SessionActive {
		return nil, repository.ErrNotFound
	}
	e := exit.UTC()
	mins := int64(e.Sub(sess.EntryTime).Minutes())
	sess.Status = model.SessionCompleted
	sess.ExitTime = &e
	sess.DurationMinutes = &mins
	sess.UpdatedAt = time.Now().UTC()
	return cloneSession(sess), nil
}

func (r *SessionRepo) Reopen(ctx context.Context, sessionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[sessionID]
	if !ok {
		return repository.ErrNotFound
	}
	sess.Status = model.SessionActive
	sess.ExitTime = nil
	sess.DurationMinutes = nil
	sess.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *SessionRepo) FindActiveByPlate(ctx context.Context, garageID, plate string) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sess := range r.s.sessions {
		if sess.GarageID == garageID && sess.Plate == plate && sess.Status == model.SessionActive {
			return cloneSession(sess), nil
		}
	}
	return nil, repository.ErrNoActiveSession
}

func (r *SessionRepo) ListByGarage(ctx context.Context, garageID string, activeOnly bool) ([]model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Session
	for _, sess := range r.s.sessions {
		if sess.GarageID != garageID {
			continue
		}
		if activeOnly && sess.Status != model.SessionActive {
			continue
		}
		out = append(out, *cloneSession(sess))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntryTime.Equal(out[j].EntryTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].EntryTime.After(out[j].EntryTime)
	})
	return out, nil
}

func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sessions[sessionID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.sessions, sessionID)
	return nil
}

// --- attendants ---

func (r *AttendantRepo) Create(ctx context.Context, email, passwordHash string) (uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	if _, ok := r.s.attendants[email]; ok {
		return 0, repository.ErrDuplicate
	}
	r.s.nextAttendantID++
	now := time.Now().UTC()
	r.s.attendants[email] = &model.Attendant{
		ID:           r.s.nextAttendantID,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return r.s.nextAttendantID, nil
}

func (r *AttendantRepo) FindByEmail(ctx context.Context, email string) (*model.Attendant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.attendants[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// --- helpers ---

func typeSet(types []model.SpotType) map[model.SpotType]bool {
	if len(types) == 0 {
		return nil
	}
	m := make(map[model.SpotType]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

func cloneSpot(sp *model.Spot) *model.Spot {
	cp := *sp
	if sp.OccupantPlate != nil {
		p := *sp.OccupantPlate
		cp.OccupantPlate = &p
	}
	if sp.Features != nil {
		cp.Features = append([]model.SpotFeature(nil), sp.Features...)
	}
	return &cp
}

func cloneVehicle(v *model.Vehicle) *model.Vehicle {
	cp := *v
	if v.SpotID != nil {
		sid := *v.SpotID
		cp.SpotID = &sid
	}
	return &cp
}

func cloneSession(sess *model.Session) *model.Session {
	cp := *sess
	if sess.ExitTime != nil {
		t := *sess.ExitTime
		cp.ExitTime = &t
	}
	if sess.ExpectedExit != nil {
		t := *sess.ExpectedExit
		cp.ExpectedExit = &t
	}
	if sess.DurationMinutes != nil {
		d := *sess.DurationMinutes
		cp.DurationMinutes = &d
	}
	return &cp
}
