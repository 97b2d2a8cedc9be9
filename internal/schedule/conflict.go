package schedule

import (
	"fmt"
	"time"
)

// Window is a committed time range an applicant is already booked for
type Window struct {
	Start time.Time
	End   time.Time
}

// Availability is the outcome of a conflict check for one candidate time
type Availability struct {
	Available bool
	Reason    string
}

// CheckAvailability reports whether a candidate window [start, start+duration)
// overlaps any existing committed window. Pure and deterministic: it is
// re-evaluated on every read of a schedule request, never cached, because
// the applicant's commitments can change between proposal and selection.
func CheckAvailability(start time.Time, duration time.Duration, existing []Window) Availability {
	end := start.Add(duration)

	for _, w := range existing {
		// Two windows conflict iff they overlap
		if start.Before(w.End) && w.Start.Before(end) {
			return Availability{
				Available: false,
				Reason: fmt.Sprintf("conflicts with an existing interview from %s to %s",
					w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339)),
			}
		}
	}

	return Availability{Available: true}
}
