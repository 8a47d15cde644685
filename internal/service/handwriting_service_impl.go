package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/domain"
)

type handwritingService struct {
	cases      CaseService
	progress   ProgressionService
	classifier app.HandwritingClassifier
}

// NewHandwritingService runs the external classifier and submits its verdict
// as the stage-1 draft.
func NewHandwritingService(cases CaseService, progress ProgressionService, classifier app.HandwritingClassifier) HandwritingService {
	return &handwritingService{cases: cases, progress: progress, classifier: classifier}
}

func (s *handwritingService) AnalyzeHandwriting(ctx context.Context, caller domain.Caller, caseID string, sample app.HandwritingSample) (*domain.StagePayload, error) {
	if len(sample.Data) == 0 {
		return nil, domain.Validationf("handwriting sample is empty")
	}
	// Check the gate first so a refused caller never reaches the classifier.
	view, err := s.cases.View(ctx, caller, caseID)
	if err != nil {
		return nil, err
	}
	st := view.Stages[domain.StageHandwriting-1]
	if st.Status != domain.ViewEditable {
		return nil, domain.EditError(domain.Access{Reason: st.Reason})
	}

	analysis, err := s.classifier.Classify(ctx, sample)
	if err != nil {
		return nil, fmt.Errorf("classifying handwriting sample: %w", err)
	}
	if analysis.SampleRef == "" {
		analysis.SampleRef = sample.Filename
	}
	return s.progress.SubmitStagePayload(ctx, caller, caseID, domain.StageHandwriting, analysis)
}
