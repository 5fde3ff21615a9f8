package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NormalizeDate parses the date formats seen across bank statements:
// DD/MM/YYYY, YYYY/MM/DD and 2-digit-year variants, slash or hyphen
// separated. Ambiguous DD/MM vs MM/DD shapes resolve day-first; a first
// component above 12 can only be a day. Invalid calendar dates are errors,
// which drops the row upstream.
func NormalizeDate(token string) (time.Time, error) {
	token = strings.TrimSpace(token)
	sep := "/"
	if !strings.Contains(token, "/") {
		sep = "-"
	}
	parts := strings.Split(token, sep)
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("unrecognized date %q", token)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, fmt.Errorf("unrecognized date %q", token)
		}
		nums[i] = n
	}

	var year, month, day int
	if len(parts[0]) == 4 {
		year, month, day = nums[0], nums[1], nums[2]
	} else {
		day, month, year = nums[0], nums[1], nums[2]
		if month > 12 && day <= 12 {
			day, month = month, day
		}
		if len(parts[2]) <= 2 {
			year += 2000
		}
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, fmt.Errorf("invalid calendar date %q", token)
	}
	return d, nil
}
