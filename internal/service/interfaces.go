package service

import (
	"context"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/domain"
)

type CaseService interface {
	Create(ctx context.Context, caller domain.Caller, req app.CreateCaseRequest) (*domain.Case, error)
	List(ctx context.Context, caller domain.Caller) ([]*domain.Case, error)
	GetState(ctx context.Context, caller domain.Caller, caseID string) (*app.CaseState, error)
	View(ctx context.Context, caller domain.Caller, caseID string) (*app.CaseView, error)
	AddMember(ctx context.Context, caller domain.Caller, caseID, userID string, role domain.Role) error
	RemoveMember(ctx context.Context, caller domain.Caller, caseID, userID string) error
}

type ProgressionService interface {
	GetStagePayload(ctx context.Context, caller domain.Caller, caseID string, stage domain.Stage) (*app.StageView, error)
	SubmitStagePayload(ctx context.Context, caller domain.Caller, caseID string, stage domain.Stage, data domain.Payload) (*domain.StagePayload, error)
	CompleteStage(ctx context.Context, caller domain.Caller, caseID string, stage domain.Stage) (*app.StageCompletion, error)
	RecordActivityProgress(ctx context.Context, caller domain.Caller, caseID string, entry domain.ProgressEntry) (*domain.StagePayload, error)
	UpdateActivityProgress(ctx context.Context, caller domain.Caller, caseID string, entry domain.ProgressEntry) (*domain.StagePayload, error)
	ActivityProgressHistory(ctx context.Context, caller domain.Caller, caseID, activityID string) ([]domain.ProgressEntry, error)
}

type HandwritingService interface {
	AnalyzeHandwriting(ctx context.Context, caller domain.Caller, caseID string, sample app.HandwritingSample) (*domain.StagePayload, error)
}

type LifecycleService interface {
	DecideSessionOutcome(ctx context.Context, caller domain.Caller, req app.DecisionRequest) (*domain.TherapyReport, error)
	TerminateProgress(ctx context.Context, caller domain.Caller, caseID string, confirmed bool) (*app.CaseState, error)
}

type ArchiveService interface {
	ListReports(ctx context.Context, caller domain.Caller, q app.ReportQuery) ([]domain.TherapyReport, error)
	GetReport(ctx context.Context, caller domain.Caller, caseID string, session int) (*domain.TherapyReport, error)
}

type RecommendationService interface {
	Submit(ctx context.Context, caller domain.Caller, caseID string, rec domain.StakeholderRecommendation) (*domain.StakeholderRecommendation, error)
	List(ctx context.Context, caller domain.Caller, caseID string) ([]domain.StakeholderRecommendation, error)
}
