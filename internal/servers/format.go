package servers

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatGamma renders a dollar-gamma figure right-aligned in twenty
// columns, two decimals, with thousands separators.
func FormatGamma(v float64) string {
	return fmt.Sprintf("gamma: %20s", message.NewPrinter(language.English).Sprintf("%.2f", v))
}
