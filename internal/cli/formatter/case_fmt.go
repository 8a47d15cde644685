package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alexanderramin/caseflow/internal/contract"
	"github.com/alexanderramin/caseflow/internal/domain"
)

// FormatCaseList renders the caller's cases as a table.
func FormatCaseList(cases []contract.CaseSummary) string {
	if len(cases) == 0 {
		return Dim("No cases found.") + "\n"
	}
	headers := []string{"ID", "STUDENT", "SCHOOL", "GRADE", "STAGE", "SESSION", "STATUS"}
	rows := make([][]string, 0, len(cases))
	for _, c := range cases {
		status := StyleGreen.Render("● Open")
		if c.CaseCompleted {
			status = StyleDim.Render("✔ Completed")
		}
		rows = append(rows, []string{
			TruncID(c.ID),
			Bold(c.StudentName),
			c.School,
			c.Grade,
			fmt.Sprintf("%d/%d", c.CurrentStage, domain.LastStage),
			fmt.Sprintf("%d", c.SessionNumber),
			status,
		})
	}
	return RenderBox("Cases", RenderTable(headers, rows))
}

// FormatCaseView renders the case overview: identity, the stage track and
// the per-stage status for the caller.
func FormatCaseView(v contract.CaseView) string {
	var b strings.Builder
	b.WriteString(KeyValues([][2]string{
		{"Case", v.Case.ID},
		{"Student", Bold(v.Case.StudentName)},
		{"Birthday", v.Case.Birthday},
		{"School", fmt.Sprintf("%s, grade %s", v.Case.School, v.Case.Grade)},
		{"Session", fmt.Sprintf("%d", v.State.SessionNumber)},
		{"Viewing as", string(v.Role)},
	}))
	b.WriteString("\n")
	b.WriteString(RenderStageTrack(v.State))
	b.WriteString("\n")
	switch {
	case v.State.CaseCompleted:
		b.WriteString(StyleDim.Render("Therapy completed. The case is read-only.") + "\n")
	case v.State.AwaitingDecision:
		b.WriteString(StyleYellow.Render("Awaiting the doctor's session decision.") + "\n")
	}
	b.WriteString("\n")

	headers := []string{"#", "STAGE", "OWNERS", "STATUS", "PAYLOAD"}
	rows := make([][]string, 0, len(v.Stages))
	for _, s := range v.Stages {
		owners := make([]string, 0, len(s.Owners))
		for _, o := range s.Owners {
			owners = append(owners, string(o))
		}
		payload := Dim("--")
		if s.HasPayload {
			payload = "saved"
		}
		status := StatusPill(s.Status)
		if s.Reason != "" && s.Status != domain.ViewEditable {
			status += " " + Dim("("+s.Reason+")")
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.Stage),
			s.Title,
			strings.Join(owners, ", "),
			status,
			payload,
		})
	}
	b.WriteString(RenderTable(headers, rows))

	if len(v.Members) > 0 {
		b.WriteString("\n" + Header("Members") + "\n")
		for _, m := range v.Members {
			fmt.Fprintf(&b, "  %-8s %s\n", m.Role, m.UserID)
		}
	}
	return RenderBox(v.Case.StudentName, b.String())
}

// FormatCaseState renders the progression tuple after a transition.
func FormatCaseState(st contract.CaseState) string {
	line := fmt.Sprintf("%s  session %d", RenderStageTrack(st), st.SessionNumber)
	switch {
	case st.CaseCompleted:
		line += "  " + StyleDim.Render("completed")
	case st.AwaitingDecision:
		line += "  " + StyleYellow.Render("awaiting decision")
	}
	return line + "\n"
}

// FormatStageView renders a stage and its payload body.
func FormatStageView(v contract.StageView) string {
	var b strings.Builder
	b.WriteString(KeyValues([][2]string{
		{"Stage", fmt.Sprintf("%d  %s", v.Stage, v.Title)},
		{"Status", StatusPill(v.Status)},
	}))
	b.WriteString("\n")
	if v.Payload == nil {
		b.WriteString(Dim("Nothing saved yet.") + "\n")
		return RenderBox("", b.String())
	}
	b.WriteString(KeyValues([][2]string{
		{"Session", fmt.Sprintf("%d", v.Payload.SessionNumber)},
		{"Author", fmt.Sprintf("%s (%s)", v.Payload.AuthorID, v.Payload.AuthorRole)},
		{"Updated", HumanTimestamp(v.Payload.UpdatedAt)},
	}))
	b.WriteString("\n")
	if v.Payload.Kind == domain.KindAssessment {
		var a domain.AssessmentSummary
		if err := json.Unmarshal(v.Payload.Data, &a); err == nil {
			b.WriteString(formatAssessment(&a))
			b.WriteString("\n")
		}
	}
	b.WriteString(indentJSON(v.Payload.Data))
	return RenderBox("", b.String())
}

func formatAssessment(a *domain.AssessmentSummary) string {
	pct := a.Percentage()
	out := fmt.Sprintf("%s  %g / %g  %s\n",
		RenderProgress(pct, a.CutoffPercentage, 20), a.TotalScore, a.TotalMaxScore, RiskIndicator(a.RiskLevel))
	if len(a.UnderperformingTasks) > 0 {
		out += Dim("Underperforming: ") + strings.Join(a.UnderperformingTasks, ", ") + "\n"
	}
	return out
}

// FormatStagePayload confirms a saved payload.
func FormatStagePayload(p *contract.StagePayload) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("Saved stage %d payload (%s) for session %d.\n", p.Stage, p.Kind, p.SessionNumber)
}

// FormatReportList renders one row per therapy session.
func FormatReportList(reports []domain.TherapyReport) string {
	if len(reports) == 0 {
		return Dim("No therapy reports yet.") + "\n"
	}
	headers := []string{"SESSION", "OUTCOME", "STARTED", "ENDED", "DIAGNOSIS", "ACTIVITIES", "RECORDS"}
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.SessionNumber),
			OutcomeBadge(r.Outcome),
			HumanDate(r.StartedAt),
			HumanDate(r.EndedAt),
			DiagnosisBadge(r.Diagnosis),
			fmt.Sprintf("%d", r.TotalActivities),
			fmt.Sprintf("%d", r.ProgressRecords),
		})
	}
	return RenderBox("Therapy reports", RenderTable(headers, rows))
}

// FormatReport renders one report in full.
func FormatReport(r *domain.TherapyReport) string {
	var b strings.Builder
	pairs := [][2]string{
		{"Outcome", OutcomeBadge(r.Outcome)},
		{"Started", HumanTimestamp(r.StartedAt)},
		{"Ended", HumanTimestamp(r.EndedAt)},
		{"Diagnosis", DiagnosisBadge(r.Diagnosis)},
		{"Activities", fmt.Sprintf("%d", r.TotalActivities)},
		{"Progress records", fmt.Sprintf("%d", r.ProgressRecords)},
	}
	if r.TerminationReason != "" {
		pairs = append(pairs, [2]string{"Reason", r.TerminationReason})
	}
	b.WriteString(KeyValues(pairs))

	if r.Activities != nil && len(r.Activities.Activities) > 0 {
		b.WriteString("\n" + Header("Activities") + "\n")
		rows := make([][]string, 0, len(r.Activities.Activities))
		for _, a := range r.Activities.Activities {
			rows = append(rows, []string{a.ID, a.Name, a.Type, a.Frequency, fmt.Sprintf("%dm", a.DurationMinutes)})
		}
		b.WriteString(RenderTable([]string{"ID", "NAME", "TYPE", "FREQUENCY", "DURATION"}, rows))
	}
	if r.Progress != nil && len(r.Progress.Entries) > 0 {
		b.WriteString("\n" + Header("Progress") + "\n")
		b.WriteString(formatProgressRows(r.Progress.Entries))
	}
	if e := r.Evaluation; e != nil {
		b.WriteString("\n" + Header("Evaluation") + "\n")
		pairs := [][2]string{}
		add := func(label, v string) {
			if v != "" {
				pairs = append(pairs, [2]string{label, v})
			}
		}
		add("Priority", e.InterventionPriority)
		add("Short-term goals", e.ShortTermGoals)
		add("Long-term goals", e.LongTermGoals)
		add("Interventions", e.RecommendedInterventions)
		add("Follow-up", e.FollowUpTimeline)
		add("Clinical notes", e.ClinicalNotes)
		add("Referrals", e.ReferralsNeeded)
		b.WriteString(KeyValues(pairs))
	}
	if len(r.Recommendations) > 0 {
		b.WriteString("\n" + Header("Recommendations") + "\n")
		b.WriteString(formatRecommendationRows(r.Recommendations))
	}
	return RenderBox(fmt.Sprintf("Session %d", r.SessionNumber), b.String())
}

// FormatProgressHistory renders the progress entries of one activity.
func FormatProgressHistory(activityID string, entries []domain.ProgressEntry) string {
	if len(entries) == 0 {
		return Dim(fmt.Sprintf("No progress recorded for activity %s.", activityID)) + "\n"
	}
	return RenderBox("Activity "+activityID, formatProgressRows(entries))
}

func formatProgressRows(entries []domain.ProgressEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.SessionDate, e.ActivityID, e.Status,
			fmt.Sprintf("%g%%", e.CompletionPercentage), string(e.RecordedRole)})
	}
	return RenderTable([]string{"DATE", "ACTIVITY", "STATUS", "DONE", "BY"}, rows)
}

// FormatRecommendations renders the recommendations of the open session.
func FormatRecommendations(recs []domain.StakeholderRecommendation) string {
	if len(recs) == 0 {
		return Dim("No recommendations submitted.") + "\n"
	}
	return RenderBox("Recommendations", formatRecommendationRows(recs))
}

func formatRecommendationRows(recs []domain.StakeholderRecommendation) string {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			string(r.AuthorRole),
			r.AuthorID,
			Preview(r.Observations, 40),
			Preview(r.Recommendations, 40),
		})
	}
	return RenderTable([]string{"ROLE", "AUTHOR", "OBSERVATIONS", "RECOMMENDATIONS"}, rows)
}

func indentJSON(data json.RawMessage) string {
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return string(data) + "\n"
	}
	return out.String() + "\n"
}
