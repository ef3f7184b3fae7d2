package agent

import "fmt"

// FormatMinorUnits renders an integer minor-unit amount (cents) as a major
// currency unit string with two decimals: 10000 becomes "100.00".
func FormatMinorUnits(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
