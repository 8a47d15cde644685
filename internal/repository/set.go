package repository

import "github.com/alexanderramin/caseflow/internal/db"

// Set bundles the repositories one unit of work operates on.
type Set struct {
	Cases           CaseRepo
	Members         MemberRepo
	Payloads        PayloadRepo
	Reports         ReportRepo
	Recommendations RecommendationRepo
}

// NewSQLiteSet builds every SQLite repository over the same DBTX, so a
// transaction-scoped set sees its own uncommitted writes.
func NewSQLiteSet(d db.DBTX) Set {
	return Set{
		Cases:           NewSQLiteCaseRepo(d),
		Members:         NewSQLiteMemberRepo(d),
		Payloads:        NewSQLitePayloadRepo(d),
		Reports:         NewSQLiteReportRepo(d),
		Recommendations: NewSQLiteRecommendationRepo(d),
	}
}
