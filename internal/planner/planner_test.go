package planner

import (
	"github.com/hyperengineering/fitplan/internal/onboarding"
	"github.com/hyperengineering/fitplan/internal/program"
)

const validPlanJSON = `{"summary":"Build a base.","nutrition":{"calories":2200,"proteinGrams":150,"carbsGrams":240,"fatsGrams":61},"training":{"split":"Upper/Lower","schedule":[{"day":"Monday","focus":"Upper","notes":""},{"day":"Tuesday","focus":"Lower","notes":""}]}}`

func sampleRequest() program.Request {
	return program.Request{
		Goal:           onboarding.GoalBuildMuscle,
		TimelineMonths: 6,
		HeightCm:       178,
		WeightKg:       75,
		Age:            29,
		Sex:            onboarding.SexMale,
		ActivityLevel:  onboarding.ActivityOftenOnFeet,
		DaysPerWeek:    2,
		Experience:     onboarding.ExperienceIntermediate,
	}
}
