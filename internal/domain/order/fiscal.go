package order

import (
	"strconv"
	"time"
)

// fiscalYearStartMonth is the first month of the fiscal year; a fiscal
// year is labeled by the calendar year it starts in.
const fiscalYearStartMonth = time.April

// FiscalYearLabel returns the label of the fiscal year containing t.
func FiscalYearLabel(t time.Time) string {
	year := t.Year()
	if t.Month() < fiscalYearStartMonth {
		year--
	}
	return strconv.Itoa(year)
}
