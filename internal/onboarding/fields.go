package onboarding

// Field names an answer in the flat key-value record. Values match the JSON keys of Answers.
type Field string

const (
	FieldSex                  Field = "sex"
	FieldAge                  Field = "age"
	FieldHeightCm             Field = "heightCm"
	FieldWeightKg             Field = "weightKg"
	FieldGoal                 Field = "goal"
	FieldWeeklyFatLossRate    Field = "weeklyFatLossRate"
	FieldActivityLevel        Field = "activityLevel"
	FieldDaysPerWeek          Field = "daysPerWeek"
	FieldExperience           Field = "experience"
	FieldTrainingSplit        Field = "trainingSplit"
	FieldEquipment            Field = "equipment"
	FieldHasInjuries          Field = "hasInjuries"
	FieldInjuryDetails        Field = "injuryDetails"
	FieldWorkoutTime          Field = "workoutTime"
	FieldSessionLengthMinutes Field = "sessionLengthMinutes"
	FieldSleepHours           Field = "sleepHours"
	FieldDietaryRestrictions  Field = "dietaryRestrictions"
	FieldAvoidFoods           Field = "avoidFoods"
	FieldCoachStyle           Field = "coachStyle"
	FieldCoachNotes           Field = "coachNotes"
)

// MetricsFields must all be answered before the metrics teaser can be computed.
// The weekly fat-loss rate stands in for the derived goal timeline.
var MetricsFields = []Field{
	FieldAge, FieldSex, FieldHeightCm, FieldWeightKg,
	FieldActivityLevel, FieldGoal, FieldWeeklyFatLossRate, FieldDaysPerWeek,
}

// RequestFields must all be answered before a program request can be built.
var RequestFields = []Field{
	FieldGoal, FieldWeeklyFatLossRate, FieldHeightCm, FieldWeightKg, FieldAge,
	FieldSex, FieldActivityLevel, FieldDaysPerWeek, FieldExperience,
}

// Has reports whether the field has been answered.
func (a Answers) Has(f Field) bool {
	switch f {
	case FieldSex:
		return a.Sex != nil
	case FieldAge:
		return a.Age != nil
	case FieldHeightCm:
		return a.HeightCm != nil
	case FieldWeightKg:
		return a.WeightKg != nil
	case FieldGoal:
		return a.Goal != nil
	case FieldWeeklyFatLossRate:
		return a.WeeklyFatLossRate != nil
	case FieldActivityLevel:
		return a.ActivityLevel != nil
	case FieldDaysPerWeek:
		return a.DaysPerWeek != nil
	case FieldExperience:
		return a.Experience != nil
	case FieldTrainingSplit:
		return a.TrainingSplit != nil
	case FieldEquipment:
		return a.Equipment != nil
	case FieldHasInjuries:
		return a.HasInjuries != nil
	case FieldInjuryDetails:
		return a.InjuryDetails != nil
	case FieldWorkoutTime:
		return a.WorkoutTime != nil
	case FieldSessionLengthMinutes:
		return a.SessionLengthMinutes != nil
	case FieldSleepHours:
		return a.SleepHours != nil
	case FieldDietaryRestrictions:
		return a.DietaryRestrictions != nil
	case FieldAvoidFoods:
		return a.AvoidFoods != nil
	case FieldCoachStyle:
		return a.CoachStyle != nil
	case FieldCoachNotes:
		return a.CoachNotes != nil
	default:
		return false
	}
}

// Missing returns the fields from the given list that have not been answered, in list order.
func (a Answers) Missing(fields ...Field) []Field {
	var out []Field
	for _, f := range fields {
		if !a.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// RequiredFields returns the answers step s needs before the user moves on.
// The result depends on answers given so far: the injuries step asks for
// details only once the user has said they have an injury.
func RequiredFields(s Step, a Answers) []Field {
	switch s {
	case StepGoal:
		return []Field{FieldGoal}
	case StepGoalTimeline:
		return []Field{FieldWeeklyFatLossRate}
	case StepSex:
		return []Field{FieldSex}
	case StepAge:
		return []Field{FieldAge}
	case StepHeight:
		return []Field{FieldHeightCm}
	case StepWeight:
		return []Field{FieldWeightKg}
	case StepActivityLevel:
		return []Field{FieldActivityLevel}
	case StepExperience:
		return []Field{FieldExperience}
	case StepTrainingDays:
		return []Field{FieldDaysPerWeek}
	case StepTrainingSplit:
		return []Field{FieldTrainingSplit}
	case StepEquipment:
		return []Field{FieldEquipment}
	case StepInjuries:
		if a.HasInjuries != nil && *a.HasInjuries {
			return []Field{FieldHasInjuries, FieldInjuryDetails}
		}
		return []Field{FieldHasInjuries}
	case StepWorkoutTime:
		return []Field{FieldWorkoutTime}
	case StepSessionLength:
		return []Field{FieldSessionLengthMinutes}
	case StepSleep:
		return []Field{FieldSleepHours}
	case StepDietaryRestrictions:
		return []Field{FieldDietaryRestrictions}
	case StepAvoidFoods:
		return []Field{FieldAvoidFoods}
	case StepCoachStyle:
		return []Field{FieldCoachStyle}
	case StepPlanTeaser:
		return MetricsFields
	case StepPaywall, StepProcessing:
		return RequestFields
	default:
		s.info()
		return nil
	}
}

// MissingFields returns the required fields of step s that are still unanswered.
func MissingFields(s Step, a Answers) []Field {
	return a.Missing(RequiredFields(s, a)...)
}

// Default answers offered when a step is entered.
const (
	DefaultWeeklyFatLossRate    = 0.75
	DefaultSessionLengthMinutes = 60
)

// Prefill fills defaults for step s into a, never overwriting an answer.
// It returns the fields it set.
func Prefill(s Step, a *Answers) []Field {
	switch s {
	case StepGoalTimeline:
		if a.WeeklyFatLossRate == nil {
			a.WeeklyFatLossRate = Ptr(DefaultWeeklyFatLossRate)
			return []Field{FieldWeeklyFatLossRate}
		}
	case StepSessionLength:
		if a.SessionLengthMinutes == nil {
			a.SessionLengthMinutes = Ptr(DefaultSessionLengthMinutes)
			return []Field{FieldSessionLengthMinutes}
		}
	default:
		s.info()
	}
	return nil
}
