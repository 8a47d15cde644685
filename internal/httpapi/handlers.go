package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/contract"
	"github.com/alexanderramin/caseflow/internal/domain"
)

// maxSampleBytes bounds an uploaded handwriting image.
const maxSampleBytes = 10 << 20

type handler struct {
	svc Services
	log *slog.Logger
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(c *gin.Context, v any) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.Validationf(fmt.Sprintf("request body is malformed: %v", err))
	}
	return nil
}

func stageParam(c *gin.Context) (domain.Stage, error) {
	n, err := strconv.Atoi(c.Param("stage"))
	if err != nil {
		return 0, domain.NewError(domain.CodeUnknownStage, fmt.Sprintf("stage %q is not a number", c.Param("stage")))
	}
	return domain.Stage(n), nil
}

// GET /api/cases
func (h *handler) listCases(c *gin.Context) {
	cases, err := h.svc.Cases.List(c.Request.Context(), callerFrom(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": contract.NewCaseSummaries(cases)})
}

// POST /api/cases
func (h *handler) createCase(c *gin.Context) {
	var req contract.CreateCaseRequest
	if err := decodeJSON(c, &req); err != nil {
		RespondError(c, h.log, err)
		return
	}
	in, err := req.ToApp()
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	created, err := h.svc.Cases.Create(c.Request.Context(), callerFrom(c), in)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, contract.NewCaseSummary(created))
}

// GET /api/cases/:id
func (h *handler) viewCase(c *gin.Context) {
	view, err := h.svc.Cases.View(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, contract.NewCaseView(view))
}

// GET /api/cases/:id/state
func (h *handler) caseState(c *gin.Context) {
	st, err := h.svc.Cases.GetState(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, contract.NewCaseState(*st))
}

// POST /api/cases/:id/members
func (h *handler) addMember(c *gin.Context) {
	var req contract.AddMemberRequest
	if err := decodeJSON(c, &req); err != nil {
		RespondError(c, h.log, err)
		return
	}
	err := h.svc.Cases.AddMember(c.Request.Context(), callerFrom(c), c.Param("id"), req.UserID, domain.Role(req.Role))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /api/cases/:id/members/:user
func (h *handler) removeMember(c *gin.Context) {
	if err := h.svc.Cases.RemoveMember(c.Request.Context(), callerFrom(c), c.Param("id"), c.Param("user")); err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/cases/:id/stages/:stage
func (h *handler) getStage(c *gin.Context) {
	stage, err := stageParam(c)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	view, err := h.svc.Progress.GetStagePayload(c.Request.Context(), callerFrom(c), c.Param("id"), stage)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	out, err := contract.NewStageView(view)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// PUT /api/cases/:id/stages/:stage
func (h *handler) submitStage(c *gin.Context) {
	stage, err := stageParam(c)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		RespondError(c, h.log, domain.Validationf("request body could not be read"))
		return
	}
	data, err := domain.DecodePayload(stage, body)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	stored, err := h.svc.Progress.SubmitStagePayload(c.Request.Context(), callerFrom(c), c.Param("id"), stage, data)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	h.respondPayload(c, stored)
}

func (h *handler) respondPayload(c *gin.Context, p *domain.StagePayload) {
	out, err := contract.NewStagePayload(p)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/cases/:id/stages/:stage/complete
func (h *handler) completeStage(c *gin.Context) {
	stage, err := stageParam(c)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	out, err := h.svc.Progress.CompleteStage(c.Request.Context(), callerFrom(c), c.Param("id"), stage)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, contract.NewCaseState(out.State))
}

// POST /api/cases/:id/handwriting (multipart field "image")
func (h *handler) analyzeHandwriting(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		RespondError(c, h.log, domain.Validationf("multipart field \"image\" is required"))
		return
	}
	if file.Size > maxSampleBytes {
		RespondError(c, h.log, domain.Validationf(fmt.Sprintf("image exceeds %d bytes", maxSampleBytes)))
		return
	}
	f, err := file.Open()
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	defer f.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(f, maxSampleBytes)); err != nil {
		RespondError(c, h.log, err)
		return
	}
	sample := app.HandwritingSample{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Data:        buf.Bytes(),
	}
	stored, err := h.svc.Handwriting.AnalyzeHandwriting(c.Request.Context(), callerFrom(c), c.Param("id"), sample)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	h.respondPayload(c, stored)
}

// POST /api/cases/:id/progress
func (h *handler) recordProgress(c *gin.Context) {
	var entry domain.ProgressEntry
	if err := decodeJSON(c, &entry); err != nil {
		RespondError(c, h.log, err)
		return
	}
	stored, err := h.svc.Progress.RecordActivityProgress(c.Request.Context(), callerFrom(c), c.Param("id"), entry)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	h.respondPayload(c, stored)
}

// PUT /api/cases/:id/progress/:entry
func (h *handler) updateProgress(c *gin.Context) {
	var entry domain.ProgressEntry
	if err := decodeJSON(c, &entry); err != nil {
		RespondError(c, h.log, err)
		return
	}
	entry.ID = c.Param("entry")
	stored, err := h.svc.Progress.UpdateActivityProgress(c.Request.Context(), callerFrom(c), c.Param("id"), entry)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	h.respondPayload(c, stored)
}

// GET /api/cases/:id/activities/:activity/progress
func (h *handler) progressHistory(c *gin.Context) {
	entries, err := h.svc.Progress.ActivityProgressHistory(c.Request.Context(), callerFrom(c), c.Param("id"), c.Param("activity"))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity_id": c.Param("activity"), "entries": entries})
}

// GET /api/cases/:id/recommendations
func (h *handler) listRecommendations(c *gin.Context) {
	recs, err := h.svc.Recommendations.List(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	if recs == nil {
		recs = []domain.StakeholderRecommendation{}
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

// POST /api/cases/:id/recommendations
func (h *handler) submitRecommendation(c *gin.Context) {
	var rec domain.StakeholderRecommendation
	if err := decodeJSON(c, &rec); err != nil {
		RespondError(c, h.log, err)
		return
	}
	out, err := h.svc.Recommendations.Submit(c.Request.Context(), callerFrom(c), c.Param("id"), rec)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/cases/:id/decision
func (h *handler) decide(c *gin.Context) {
	var req contract.DecisionRequest
	if err := decodeJSON(c, &req); err != nil {
		RespondError(c, h.log, err)
		return
	}
	report, err := h.svc.Lifecycle.DecideSessionOutcome(c.Request.Context(), callerFrom(c), req.ToApp(c.Param("id")))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// POST /api/cases/:id/terminate-progress
func (h *handler) terminateProgress(c *gin.Context) {
	var req contract.TerminateRequest
	if err := decodeJSON(c, &req); err != nil {
		RespondError(c, h.log, err)
		return
	}
	st, err := h.svc.Lifecycle.TerminateProgress(c.Request.Context(), callerFrom(c), c.Param("id"), req.Confirm)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, contract.NewCaseState(*st))
}

// GET /api/cases/:id/reports
func (h *handler) listReports(c *gin.Context) {
	q := app.ReportQuery{CaseID: c.Param("id")}
	if v := strings.ToLower(strings.TrimSpace(c.Query("include_ongoing"))); v != "" {
		q.IncludeOngoing = v == "1" || v == "true" || v == "yes"
	}
	reports, err := h.svc.Archive.ListReports(c.Request.Context(), callerFrom(c), q)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// GET /api/cases/:id/reports/:session
func (h *handler) getReport(c *gin.Context) {
	session, err := strconv.Atoi(c.Param("session"))
	if err != nil {
		RespondError(c, h.log, domain.Validationf(fmt.Sprintf("session %q is not a number", c.Param("session"))))
		return
	}
	report, err := h.svc.Archive.GetReport(c.Request.Context(), callerFrom(c), c.Param("id"), session)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
