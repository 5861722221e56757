package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gradepro-api/internal/grading"
	"github.com/noah-isme/gradepro-api/internal/models"
	appErrors "github.com/noah-isme/gradepro-api/pkg/errors"
	"github.com/noah-isme/gradepro-api/pkg/export"
	"github.com/noah-isme/gradepro-api/pkg/schema"
)

// LocalSessionKey is the storage identifier of the single planning session kept by the
// command line tool.
const LocalSessionKey = "grade-storage"

// SessionStore persists planning-session blobs by key.
type SessionStore interface {
	Get(ctx context.Context, key string) (*models.SessionRecord, error)
	Upsert(ctx context.Context, key string, payload []byte, updatedAt time.Time) error
	Delete(ctx context.Context, key string) error
}

var planningSessionSchema = schema.Schema{
	Name: "planning-session",
	Definition: `{
  "type": "object",
  "$defs": {
    "grade": {"enum": ["A+", "A", "B+", "B", "C+", "C", "D", "F"]},
    "component": {
      "type": "object",
      "required": ["name", "earned", "max"],
      "properties": {
        "name": {"type": "string"},
        "earned": {"type": "number", "minimum": 0},
        "max": {"type": "number", "exclusiveMinimum": 0}
      }
    }
  },
  "properties": {
    "student": {
      "type": ["object", "null"],
      "required": ["name", "semester"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "roll_number": {"type": "string"},
        "semester": {"type": "integer", "minimum": 1, "maximum": 12},
        "current_average": {"type": "number", "minimum": 0, "maximum": 10},
        "target_average": {"type": ["number", "null"], "minimum": 0, "maximum": 10}
      }
    },
    "subjects": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["subject_name", "credit_weight", "required_grade"],
        "properties": {
          "subject_name": {"type": "string", "minLength": 1},
          "credit_weight": {"type": "integer", "minimum": 1, "maximum": 6},
          "required_grade": {"$ref": "#/$defs/grade"},
          "required_min_percentage": {"type": "number", "minimum": 0, "maximum": 100}
        }
      }
    },
    "progress": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["subject_name", "components", "final_max", "target_grade"],
        "properties": {
          "subject_name": {"type": "string", "minLength": 1},
          "subject_id": {"enum": ["", "daa", "cn", "se", "cc"]},
          "credit_weight": {"type": "integer", "minimum": 0, "maximum": 6},
          "components": {"type": "array", "minItems": 2, "items": {"$ref": "#/$defs/component"}},
          "final_max": {"type": "number", "exclusiveMinimum": 0},
          "target_grade": {"$ref": "#/$defs/grade"},
          "result": {
            "type": ["object", "null"],
            "properties": {
              "required_marks": {"type": "number", "minimum": 0},
              "achievable": {"type": "boolean"},
              "explanation": {"type": "string"},
              "basis": {"enum": ["ceiling", "early-warning", "historical-basis", "formula"]}
            }
          }
        }
      }
    },
    "advice": {"type": ["array", "null"]},
    "updated_at": {"type": "string"}
  }
}`,
}

// SessionService loads and replaces planning-session snapshots. The snapshot is always
// read and written as a whole.
type SessionService struct {
	store   SessionStore
	solver  *grading.Solver
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(store SessionStore, solver *grading.Solver, metrics *MetricsService, logger *zap.Logger) *SessionService {
	if solver == nil {
		solver = grading.NewSolver(grading.DefaultHistory())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{store: store, solver: solver, metrics: metrics, logger: logger, now: time.Now}
}

// Load returns the snapshot stored under key.
func (s *SessionService) Load(ctx context.Context, key string) (*models.PlanningSession, error) {
	start := time.Now()
	record, err := s.store.Get(ctx, key)
	s.metrics.ObserveDBQuery("session_get", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "planning session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planning session")
	}

	session, err := decodeSession(record.Payload)
	if err != nil {
		s.logger.Warn("stored planning session is invalid", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = record.UpdatedAt
	}
	return session, nil
}

// Save validates raw and replaces the snapshot stored under key.
func (s *SessionService) Save(ctx context.Context, key string, raw []byte) (*models.PlanningSession, error) {
	session, err := decodeSession(raw)
	if err != nil {
		return nil, err
	}
	session.UpdatedAt = s.now().UTC()

	payload, err := json.Marshal(session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode planning session")
	}

	start := time.Now()
	err = s.store.Upsert(ctx, key, payload, session.UpdatedAt)
	s.metrics.ObserveDBQuery("session_upsert", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save planning session")
	}
	return session, nil
}

// Delete removes the snapshot stored under key.
func (s *SessionService) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.store.Delete(ctx, key)
	s.metrics.ObserveDBQuery("session_delete", time.Since(start))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete planning session")
	}
	return nil
}

// Export renders the stored snapshot as a progress table. Subjects without a stored
// result are solved on the fly.
func (s *SessionService) Export(ctx context.Context, key, format string) (*export.Document, error) {
	f := export.Format(strings.ToLower(strings.TrimSpace(format)))
	if f == "" {
		f = export.FormatCSV
	}
	if !f.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", format))
	}

	session, err := s.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	title := "Grade plan"
	if session.Student != nil && session.Student.Name != "" {
		title = "Grade plan for " + session.Student.Name
	}
	doc, err := export.Render(f, s.dataset(session), title, "grade-plan")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return doc, nil
}

var exportHeaders = []string{"Subject", "Credits", "Target", "Current %", "Final Max", "Required Final", "Achievable", "Basis"}

func (s *SessionService) dataset(session *models.PlanningSession) export.Dataset {
	credits := make(map[string]int, len(session.Subjects))
	for _, subject := range session.Subjects {
		credits[strings.ToLower(subject.SubjectName)] = subject.CreditWeight
	}

	data := export.Dataset{Headers: exportHeaders}
	for _, p := range session.Progress {
		result := p.Result
		if result == nil {
			solved := s.solver.Solve(p)
			result = &solved
		}
		weight := p.CreditWeight
		if weight == 0 {
			weight = credits[strings.ToLower(p.SubjectName)]
		}
		current := 0.0
		if p.CurrentMax() > 0 {
			current = p.CurrentEarned() / p.CurrentMax() * 100
		}
		data.Rows = append(data.Rows, map[string]string{
			"Subject":        p.SubjectName,
			"Credits":        fmt.Sprintf("%d", weight),
			"Target":         string(p.TargetGrade),
			"Current %":      fmt.Sprintf("%.1f", current),
			"Final Max":      fmt.Sprintf("%.0f", p.FinalMax),
			"Required Final": fmt.Sprintf("%.0f", result.RequiredMarks),
			"Achievable":     yesNo(result.Achievable),
			"Basis":          string(result.Basis),
		})
	}
	for _, advice := range session.Advice {
		data.Notes = append(data.Notes, fmt.Sprintf("%s (%s, ~%d h/week): %s", advice.Subject, advice.TargetGrade, advice.EstimatedStudyHours, advice.Advice))
	}
	return data
}

func decodeSession(raw []byte) (*models.PlanningSession, error) {
	if err := schema.Validate(planningSessionSchema, raw); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidSnapshot.Code, appErrors.ErrInvalidSnapshot.Status, "planning session does not match the expected shape")
	}

	var session models.PlanningSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidSnapshot.Code, appErrors.ErrInvalidSnapshot.Status, "planning session could not be decoded")
	}
	for _, p := range session.Progress {
		for _, c := range p.Components {
			if c.Earned > c.Max {
				return nil, appErrors.Clone(appErrors.ErrInvalidSnapshot,
					fmt.Sprintf("%s: %s marks %.1f exceed the maximum of %.1f", p.SubjectName, c.Name, c.Earned, c.Max))
			}
		}
		if p.Result != nil && (p.Result.RequiredMarks < 0 || p.Result.RequiredMarks > p.FinalMax) {
			return nil, appErrors.Clone(appErrors.ErrInvalidSnapshot,
				fmt.Sprintf("%s: required marks %.1f fall outside 0-%.1f", p.SubjectName, p.Result.RequiredMarks, p.FinalMax))
		}
	}
	return &session, nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
