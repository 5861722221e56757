package service

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/gradepro-api/internal/grading"
	"github.com/noah-isme/gradepro-api/pkg/schema"
)

var historySchema = schema.Schema{
	Name: "historical-table",
	Definition: `{
  "type": "object",
  "required": ["midterm_max", "internal_max", "final_max", "records"],
  "properties": {
    "midterm_max": {"type": "number", "exclusiveMinimum": 0},
    "internal_max": {"type": "number", "exclusiveMinimum": 0},
    "final_max": {"type": "number", "exclusiveMinimum": 0},
    "records": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "subjects"],
        "properties": {
          "id": {"type": "integer"},
          "subjects": {
            "type": "object",
            "propertyNames": {"enum": ["daa", "cn", "se", "cc"]},
            "additionalProperties": {
              "type": "object",
              "required": ["midterm", "internal", "final", "grade"],
              "properties": {
                "midterm": {"type": "number", "minimum": 0},
                "internal": {"type": "number", "minimum": 0},
                "final": {"type": "number", "minimum": 0},
                "total": {"type": "number", "minimum": 0},
                "grade": {"enum": ["A+", "A", "B+", "B", "C+", "C", "D", "F"]}
              }
            }
          }
        }
      }
    }
  }
}`,
}

// LoadHistory returns the historical table used by the solver. An empty path selects
// the built-in table; otherwise the file must satisfy the historical table schema.
func LoadHistory(path string, logger *zap.Logger) (grading.HistoricalTable, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		return grading.DefaultHistory(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return grading.HistoricalTable{}, fmt.Errorf("read history file: %w", err)
	}
	if err := schema.Validate(historySchema, raw); err != nil {
		return grading.HistoricalTable{}, fmt.Errorf("validate history file %s: %w", path, err)
	}

	var table grading.HistoricalTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return grading.HistoricalTable{}, fmt.Errorf("decode history file: %w", err)
	}
	for _, rec := range table.Records {
		for id, s := range rec.Subjects {
			if s.Midterm > table.MidtermMax || s.Internal > table.InternalMax || s.Final > table.FinalMax {
				return grading.HistoricalTable{}, fmt.Errorf("history record %d (%s): marks exceed table maxima", rec.ID, id)
			}
		}
	}

	logger.Info("historical table loaded", zap.String("path", path), zap.Int("records", len(table.Records)))
	return table, nil
}
