package clinic

import (
	"time"
)

type Clinic struct {
	ID        string
	Name      string
	Timezone  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location loads the clinic timezone, falling back to UTC.
func (c Clinic) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
