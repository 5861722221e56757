package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradepro-api/internal/grading"
	"github.com/noah-isme/gradepro-api/pkg/schema"
)

func writeHistoryFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadHistoryDefaultsToBuiltIn(t *testing.T) {
	table, err := LoadHistory("", nil)
	require.NoError(t, err)
	assert.Equal(t, grading.DefaultHistory(), table)
}

func TestLoadHistoryFromFile(t *testing.T) {
	path := writeHistoryFile(t, `{
		"midterm_max": 20, "internal_max": 20, "final_max": 60,
		"records": [{"id": 7, "subjects": {"se": {"midterm": 15, "internal": 16, "final": 45, "total": 76, "grade": "A"}}}]
	}`)

	table, err := LoadHistory(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 60.0, table.FinalMax)
	require.Len(t, table.Records, 1)
	assert.Equal(t, grading.GradeA, table.Records[0].Subjects[grading.SubjectSE].Grade)
}

func TestLoadHistoryRejectsSchemaViolations(t *testing.T) {
	path := writeHistoryFile(t, `{
		"midterm_max": 30, "internal_max": 30, "final_max": 40,
		"records": [{"id": 1, "subjects": {"os": {"midterm": 15, "internal": 16, "final": 20, "grade": "A"}}}]
	}`)

	_, err := LoadHistory(path, nil)
	require.Error(t, err)
	var validationErr *schema.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestLoadHistoryRejectsMarksAboveMaxima(t *testing.T) {
	path := writeHistoryFile(t, `{
		"midterm_max": 30, "internal_max": 30, "final_max": 40,
		"records": [{"id": 1, "subjects": {"cn": {"midterm": 31, "internal": 16, "final": 20, "grade": "B"}}}]
	}`)

	_, err := LoadHistory(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceed")
}

func TestLoadHistoryMissingFile(t *testing.T) {
	_, err := LoadHistory(filepath.Join(t.TempDir(), "missing.json"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
