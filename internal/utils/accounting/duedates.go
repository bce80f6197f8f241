package accounting

import "time"

// LastDayOfMonth returns the last calendar day of d's month, at midnight in d's location.
func LastDayOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, d.Location())
}

// NextSemimonthlyDueDate returns the next 15th or end-of-month strictly after d.
//
//	day < 15            -> 15th of the same month
//	15 <= day < last    -> last day of the same month
//	day == last         -> 15th of the next month
func NextSemimonthlyDueDate(d time.Time) time.Time {
	day := d.Day()
	last := LastDayOfMonth(d)
	switch {
	case day < 15:
		return time.Date(d.Year(), d.Month(), 15, 0, 0, 0, 0, d.Location())
	case day < last.Day():
		return last
	default:
		return time.Date(d.Year(), d.Month()+1, 15, 0, 0, 0, 0, d.Location())
	}
}

// MonthlyDueDate returns the last day of the month that is `offset` months after start's month.
func MonthlyDueDate(start time.Time, offset int) time.Time {
	return time.Date(start.Year(), start.Month()+time.Month(offset)+1, 0, 0, 0, 0, 0, start.Location())
}
