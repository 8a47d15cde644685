package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/caseflow/internal/domain"
)

const dateLayout = "2006-01-02"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// parseNullableTime parses a sql.NullString into a time.Time using the given
// layout. Returns the zero time if the value is NULL, empty, or fails to parse.
func parseNullableTime(s sql.NullString, layout string) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(layout, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nullableTimeToString returns nil (SQL NULL) for the zero time, otherwise
// the formatted string.
func nullableTimeToString(t time.Time, layout string) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(layout)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s, what string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", what, err)
	}
	return t, nil
}

// boolToInt converts a Go bool to an integer (0 or 1) for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// intToBool converts a SQLite integer (0 or 1) to a Go bool.
func intToBool(i int) bool {
	return i != 0
}

func encodeStages(stages []domain.Stage) (string, error) {
	if stages == nil {
		stages = []domain.Stage{}
	}
	b, err := json.Marshal(stages)
	if err != nil {
		return "", fmt.Errorf("encoding completed stages: %w", err)
	}
	return string(b), nil
}

func decodeStages(s string) ([]domain.Stage, error) {
	var stages []domain.Stage
	if err := json.Unmarshal([]byte(s), &stages); err != nil {
		return nil, fmt.Errorf("decoding completed stages: %w", err)
	}
	if len(stages) == 0 {
		return nil, nil
	}
	return stages, nil
}

// prefixed qualifies a comma-separated column list with a table alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
