package punctuality

import (
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
	"github.com/shopspring/decimal"
)

var minutesPerHour = decimal.NewFromInt(60)

// Calculator computes punctuality and hours. It holds no state besides the
// policy, so the same inputs always produce the same outputs.
type Calculator struct {
	policy shift.Policy
}

func NewCalculator(policy shift.Policy) *Calculator {
	return &Calculator{policy: policy}
}

// LateMinutes returns whole minutes checkIn follows expectedStart, capped at the policy maximum.
func (c *Calculator) LateMinutes(checkIn, expectedStart time.Time) int {
	late := wholeMinutes(checkIn.Sub(expectedStart))
	if late <= 0 {
		return 0
	}
	if late > c.policy.MaxLateMinutes {
		return c.policy.MaxLateMinutes
	}
	return late
}

// EarlyMinutes returns whole minutes checkOut precedes expectedEnd. Uncapped.
func (c *Calculator) EarlyMinutes(checkOut, expectedEnd time.Time) int {
	early := wholeMinutes(expectedEnd.Sub(checkOut))
	if early <= 0 {
		return 0
	}
	return early
}

// LunchDeductionMinutes returns the fixed lunch deduction when the interval
// covers the whole lunch window of the check-in day. Both instants must be
// in the clinic timezone.
func (c *Calculator) LunchDeductionMinutes(checkIn, checkOut time.Time, isClinician bool) int {
	lunch := c.policy.StaffLunch
	if isClinician {
		lunch = c.policy.ClinicianLunch
	}

	start := lunch.Start.On(checkIn, checkIn.Location())
	end := lunch.End.On(checkIn, checkIn.Location())
	if !checkIn.After(start) && !checkOut.Before(end) {
		return lunch.DeductionMinutes
	}
	return 0
}

// WorkedHours returns (elapsed - lunch + credited) minutes as hours, floored
// at zero and rounded half-up to 2 places, plus the lunch deduction applied.
// creditedMinutes is zero except when an approval credits late minutes back.
func (c *Calculator) WorkedHours(checkIn, checkOut time.Time, isClinician bool, creditedMinutes int) (decimal.Decimal, int) {
	lunch := c.LunchDeductionMinutes(checkIn, checkOut, isClinician)
	minutes := wholeMinutes(checkOut.Sub(checkIn)) - lunch + creditedMinutes
	return toHours(minutes), lunch
}

// ExpectedHours applies the worked-hours rule to the expected window on day.
func (c *Calculator) ExpectedHours(window shift.Window, day time.Time, isClinician bool) decimal.Decimal {
	loc := day.Location()
	hours, _ := c.WorkedHours(window.Start.On(day, loc), window.End.On(day, loc), isClinician, 0)
	return hours
}

func toHours(minutes int) decimal.Decimal {
	if minutes <= 0 {
		return decimal.Zero
	}
	// DivRound rounds half away from zero, which is half-up for non-negative values.
	return decimal.NewFromInt(int64(minutes)).DivRound(minutesPerHour, 2)
}

func wholeMinutes(d time.Duration) int {
	return int(d / time.Minute)
}
