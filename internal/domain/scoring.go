package domain

// UnderperformingPercentage is the per-task threshold below which a task is
// flagged in the assessment summary.
const UnderperformingPercentage = 50.0

// ScorePercentage returns score as a percentage of maxScore. The value is not
// rounded; rounding is a presentation concern.
func ScorePercentage(score, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	return score * 100 / maxScore
}

// Assessment is the derived part of a stage-4 summary.
type Assessment struct {
	TotalScore           float64
	TotalMaxScore        float64
	RiskLevel            RiskLevel
	DyslexiaIndication   bool
	UnderperformingTasks []string
}

// Assess derives totals and risk from the stage-2 tasks, the stage-3 scores
// and a cutoff. Threshold checks compare cross-multiplied raw values so no
// intermediate percentage is rounded.
func Assess(tasks *TaskDefinitions, scores *TaskScores, cutoff float64) Assessment {
	var a Assessment
	for _, task := range tasks.Tasks {
		a.TotalMaxScore += task.MaxScore
		sc, ok := scores.Find(task.ID)
		if !ok {
			continue
		}
		a.TotalScore += sc.Score
		if sc.Score*100 < UnderperformingPercentage*task.MaxScore {
			a.UnderperformingTasks = append(a.UnderperformingTasks, task.ID)
		}
	}
	scaled := a.TotalScore * 100
	switch {
	case scaled >= cutoff*a.TotalMaxScore:
		a.RiskLevel = RiskLow
	case scaled >= (cutoff-10)*a.TotalMaxScore:
		a.RiskLevel = RiskMedium
	default:
		a.RiskLevel = RiskHigh
	}
	a.DyslexiaIndication = scaled < cutoff*a.TotalMaxScore
	return a
}

// Apply copies the derived values onto a summary.
func (a Assessment) Apply(s *AssessmentSummary) {
	s.TotalScore = a.TotalScore
	s.TotalMaxScore = a.TotalMaxScore
	s.RiskLevel = a.RiskLevel
	s.DyslexiaIndication = a.DyslexiaIndication
	s.UnderperformingTasks = a.UnderperformingTasks
}
