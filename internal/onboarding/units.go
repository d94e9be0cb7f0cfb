package onboarding

const (
	kgPerPound = 0.45359237
	cmPerInch  = 2.54
)

// PoundsToKg converts a display weight in pounds to kilograms.
func PoundsToKg(lb float64) float64 {
	return lb * kgPerPound
}

// InchesToCm converts a display height in inches to centimetres.
func InchesToCm(in float64) float64 {
	return in * cmPerInch
}

// FeetInchesToCm converts a feet + inches height to centimetres.
func FeetInchesToCm(ft, in float64) float64 {
	return InchesToCm(ft*12 + in)
}

// KgToPounds converts kilograms to a display weight in pounds.
func KgToPounds(kg float64) float64 {
	return kg / kgPerPound
}

// CmToInches converts centimetres to a display height in inches.
func CmToInches(cm float64) float64 {
	return cm / cmPerInch
}
