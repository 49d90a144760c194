package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors
var (
	ErrUnknownResource = errors.New("resource not in catalog")
	ErrInvalidAbsence  = errors.New("absence date is required")
	ErrAbsenceExists   = errors.New("absence already exists for this resource and day")
)

// AbsenceRecord marks a resource as unavailable for a whole calendar day
type AbsenceRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	AbsenceID  string             `bson:"absenceId" json:"absenceId"`
	Date       time.Time          `bson:"date" json:"date"`
	ResourceID string             `bson:"resourceId" json:"resourceId"`
	Role       Role               `bson:"role,omitempty" json:"role,omitempty"`
	Reason     string             `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// NewAbsenceRecord creates an absence for a catalog resource. The role is copied from the catalog.
func NewAbsenceRecord(absenceID string, catalog *ResourceCatalog, resourceID string, date time.Time, reason string) (*AbsenceRecord, error) {
	entry, ok := catalog.Lookup(resourceID)
	if !ok {
		return nil, ErrUnknownResource
	}
	if date.IsZero() {
		return nil, ErrInvalidAbsence
	}
	return &AbsenceRecord{
		AbsenceID:  absenceID,
		Date:       Day(date),
		ResourceID: entry.ID,
		Role:       entry.Role,
		Reason:     reason,
		CreatedAt:  time.Now(),
	}, nil
}

type absenceKey struct {
	resourceID string
	day        int64
}

// AbsenceIndex answers whether a resource is absent on a day
type AbsenceIndex struct {
	absent map[absenceKey]struct{}
}

// NewAbsenceIndex materializes the absence list into a lookup set
func NewAbsenceIndex(records []AbsenceRecord) *AbsenceIndex {
	idx := &AbsenceIndex{absent: make(map[absenceKey]struct{}, len(records))}
	for _, rec := range records {
		idx.absent[absenceKey{resourceID: rec.ResourceID, day: dayKey(rec.Date)}] = struct{}{}
	}
	return idx
}

// Len returns the number of distinct resource-days
func (idx *AbsenceIndex) Len() int {
	return len(idx.absent)
}

// IsAbsent reports whether the resource is absent on day
func (idx *AbsenceIndex) IsAbsent(resourceID string, day time.Time) bool {
	_, ok := idx.absent[absenceKey{resourceID: resourceID, day: dayKey(day)}]
	return ok
}

// WindowClear reports whether every resource is present on each of the days in [start, start+days)
func (idx *AbsenceIndex) WindowClear(resourceIDs []string, start time.Time, days int) bool {
	for i := 0; i < days; i++ {
		day := AddDays(start, i)
		for _, id := range resourceIDs {
			if idx.IsAbsent(id, day) {
				return false
			}
		}
	}
	return true
}

// EarliestClearStart moves from day by day until the whole window is clear for every resource.
// It terminates because the index holds finitely many absent days.
func (idx *AbsenceIndex) EarliestClearStart(resourceIDs []string, from time.Time, days int) time.Time {
	start := Day(from)
	for !idx.WindowClear(resourceIDs, start, days) {
		start = AddDays(start, 1)
	}
	return start
}
