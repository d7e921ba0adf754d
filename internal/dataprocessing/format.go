package dataprocessing

import (
	"github.com/dustin/go-humanize"
)

// pt-BR layouts for humanize: "." groups thousands, "," marks decimals.
const (
	brlLayout     = "#.###,##"
	integerLayout = "#.###,"
)

// FormatBRL renders an amount as Brazilian currency: "R$ 1.234.567,89".
func FormatBRL(value float64) string {
	return "R$ " + humanize.FormatFloat(brlLayout, value)
}

// FormatInt renders an integer with "." as thousands separator: "1.234".
func FormatInt(value int64) string {
	return humanize.FormatInteger(integerLayout, int(value))
}
