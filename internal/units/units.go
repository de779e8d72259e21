// Package units formats calibration unit strings for table headers.
package units

// Symbol maps the unit names found in image metadata to their display
// symbol. Unknown units pass through unchanged so headers never lose
// information.
func Symbol(unit string) string {
	switch unit {
	case "micron", "microns", "micrometer", "micrometre", "um", "µm":
		return "µm"
	case "nanometer", "nanometre", "nm":
		return "nm"
	case "millimeter", "millimetre", "mm":
		return "mm"
	case "":
		return "unit"
	default:
		return unit
	}
}

// Powered renders a unit raised to a power, e.g. Powered("micron", 3)
// is "µm^3". Powers outside 1..3 do not occur in the measurement table.
func Powered(unit string, power int) string {
	sym := Symbol(unit)
	switch power {
	case 2:
		return sym + "^2"
	case 3:
		return sym + "^3"
	default:
		return sym
	}
}
