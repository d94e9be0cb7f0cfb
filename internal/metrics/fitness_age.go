package metrics

import (
	"github.com/hyperengineering/fitplan/internal/onboarding"
)

// Fitness age stays within [age-FitnessAgeMaxYounger, age+FitnessAgeMaxOlder].
const (
	FitnessAgeMaxYounger = 5
	FitnessAgeMaxOlder   = 10
)

type bmiBucket int

const (
	bmiLean       bmiBucket = iota // < 22
	bmiHealthy                     // 22 to 25
	bmiOverweight                  // 25 to 27
	bmiHigh                        // > 27
)

// fitnessAgeAdjustments holds years added to chronological age, by BMI bucket then activity level.
var fitnessAgeAdjustments = map[bmiBucket]map[onboarding.ActivityLevel]int{
	bmiLean: {
		onboarding.ActivityMostlySitting:   +1,
		onboarding.ActivitySometimesOnFeet: -1,
		onboarding.ActivityOftenOnFeet:     -2,
		onboarding.ActivityVeryActive:      -3,
	},
	bmiHealthy: {
		onboarding.ActivityMostlySitting:   +2,
		onboarding.ActivitySometimesOnFeet: -1,
		onboarding.ActivityOftenOnFeet:     -1,
		onboarding.ActivityVeryActive:      -2,
	},
	bmiOverweight: {
		onboarding.ActivityMostlySitting:   +3,
		onboarding.ActivitySometimesOnFeet: +1,
		onboarding.ActivityOftenOnFeet:     -1,
		onboarding.ActivityVeryActive:      -1,
	},
	bmiHigh: {
		onboarding.ActivityMostlySitting:   +5,
		onboarding.ActivitySometimesOnFeet: +3,
		onboarding.ActivityOftenOnFeet:     +2,
		onboarding.ActivityVeryActive:      +1,
	},
}

// BMI returns body-mass index in kg/m².
func BMI(weightKg, heightCm float64) float64 {
	m := heightCm / 100
	return weightKg / (m * m)
}

func bucketFor(bmi float64) bmiBucket {
	switch {
	case bmi < 22:
		return bmiLean
	case bmi <= 25:
		return bmiHealthy
	case bmi <= 27:
		return bmiOverweight
	default:
		return bmiHigh
	}
}

// FitnessAge adjusts chronological age by BMI and activity level.
func FitnessAge(age int, weightKg, heightCm float64, level onboarding.ActivityLevel) int {
	adj := fitnessAgeAdjustments[bucketFor(BMI(weightKg, heightCm))][level]
	return clamp(age+adj, age-FitnessAgeMaxYounger, age+FitnessAgeMaxOlder)
}
