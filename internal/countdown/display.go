package countdown

import (
	"strconv"
	"strings"
)

// Display is the text a card shows for a Remaining.
type Display struct {
	Value    string // headline figure
	Label    string // unit name for the headline figure
	Subtitle string
	Expired  bool
}

// naturalLimit is the most enabled units that still get "X and Y" phrasing.
const naturalLimit = 2

// Format builds the headline and subtitle for r. The headline is the largest
// enabled unit holding a positive amount. The subtitle lists every non-zero
// enabled unit, coarsest first, as "1 day and 3 hours" when at most two units
// are enabled and as "1mo 2d 3h" otherwise. When everything is zero the most
// significant enabled unit is shown with 0.
func Format(r Remaining, units Units) Display {
	enabled := units.List()
	if len(enabled) == 0 {
		enabled = []Unit{Seconds}
	}

	head := enabled[0]
	for _, u := range enabled {
		if r.Value(u) > 0 {
			head = u
			break
		}
	}
	n := r.Value(head)

	natural := len(enabled) <= naturalLimit
	var parts []string
	for _, u := range enabled {
		if v := r.Value(u); v > 0 {
			parts = append(parts, part(u, v, natural))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, part(enabled[0], 0, natural))
	}

	subtitle := strings.Join(parts, " ")
	if natural {
		subtitle = strings.Join(parts, " and ")
	}

	return Display{
		Value:    strconv.Itoa(n),
		Label:    head.label(n),
		Subtitle: subtitle,
	}
}

// FormatExpired is the display of a finished countdown.
func FormatExpired(text string) Display {
	if strings.TrimSpace(text) == "" {
		text = DefaultExpiredText
	}
	return Display{Value: text, Expired: true}
}

func part(u Unit, v int, natural bool) string {
	if natural {
		return strconv.Itoa(v) + " " + u.label(v)
	}
	return strconv.Itoa(v) + u.abbrev()
}
