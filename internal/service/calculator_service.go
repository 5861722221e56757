package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradepro-api/internal/dto"
	"github.com/noah-isme/gradepro-api/internal/grading"
	appErrors "github.com/noah-isme/gradepro-api/pkg/errors"
)

const (
	cacheNamespaceTargets  = "calculator:targets"
	cacheNamespaceRequired = "calculator:required-marks"
)

// CalculatorService exposes the grading core with request validation, response caching
// and prediction metrics. It keeps no per-request state.
type CalculatorService struct {
	solver    *grading.Solver
	validator *validator.Validate
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewCalculatorService constructs a CalculatorService. A nil solver uses the built-in
// historical table.
func NewCalculatorService(solver *grading.Solver, validate *validator.Validate, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cacheTTL time.Duration) *CalculatorService {
	if solver == nil {
		solver = grading.NewSolver(grading.DefaultHistory())
	}
	if validate == nil {
		validate = NewValidator()
	} else {
		registerValidations(validate)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalculatorService{solver: solver, validator: validate, cache: cache, metrics: metrics, logger: logger, cacheTTL: cacheTTL}
}

// GradeScale returns the percentage grade table, best grade first.
func (s *CalculatorService) GradeScale() []grading.ScaleEntry {
	return grading.Scale()
}

// GradeForPercentage maps a percentage to its letter grade.
func (s *CalculatorService) GradeForPercentage(percentage float64) (*dto.GradeLookupResponse, error) {
	if percentage < 0 || percentage > 100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "percentage must be between 0 and 100")
	}
	grade := grading.GradeForPercentage(percentage)
	return &dto.GradeLookupResponse{Percentage: percentage, Grade: grade, Points: grading.PointsForGrade(grade)}, nil
}

// DistributeTargets assigns a target grade to every subject. The boolean reports a cache hit.
func (s *CalculatorService) DistributeTargets(ctx context.Context, req dto.DistributeTargetsRequest) (*dto.DistributeTargetsResponse, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, validationError(err, "invalid target distribution payload")
	}

	key, keyErr := cacheKey(cacheNamespaceTargets, req)
	var cached dto.DistributeTargetsResponse
	if keyErr == nil && s.lookup(ctx, key, &cached) {
		return &cached, true, nil
	}

	subjects := req.CoreSubjects()
	total := 0
	for _, subject := range subjects {
		total += subject.CreditWeight
	}
	resp := &dto.DistributeTargetsResponse{
		CurrentAverage: req.CurrentAverage,
		TargetAverage:  req.TargetAverage,
		TotalCredits:   total,
		Targets:        grading.DistributeTargets(req.CurrentAverage, req.TargetAverage, subjects),
	}

	if keyErr == nil {
		s.store(ctx, key, resp)
	}
	return resp, false, nil
}

// CheckAchievability reports whether the target grade can still be reached.
func (s *CalculatorService) CheckAchievability(ctx context.Context, req dto.ProgressRequest) (*dto.AchievabilityResponse, error) {
	progress, err := s.validateProgress(req)
	if err != nil {
		return nil, err
	}
	return &dto.AchievabilityResponse{
		SubjectName: progress.SubjectName,
		TargetGrade: progress.TargetGrade,
		Check:       grading.CheckAchievability(progress),
	}, nil
}

// SolveRequiredMarks computes the final-component score needed for the target grade.
// The boolean reports a cache hit.
func (s *CalculatorService) SolveRequiredMarks(ctx context.Context, req dto.ProgressRequest) (*dto.RequiredMarksResponse, bool, error) {
	progress, err := s.validateProgress(req)
	if err != nil {
		return nil, false, err
	}

	key, keyErr := cacheKey(cacheNamespaceRequired, req)
	var cached dto.RequiredMarksResponse
	if keyErr == nil && s.lookup(ctx, key, &cached) {
		return &cached, true, nil
	}

	resp := s.solve(progress)
	if keyErr == nil {
		s.store(ctx, key, resp)
	}
	return &resp, false, nil
}

// SolveAll validates every subject before solving any of them. A single invalid subject
// rejects the whole batch with one reason per offending subject.
func (s *CalculatorService) SolveAll(ctx context.Context, req dto.BatchProgressRequest) (*dto.BatchRequiredMarksResponse, error) {
	if len(req.Subjects) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one subject is required")
	}

	progress := make([]grading.SubjectProgress, 0, len(req.Subjects))
	reasons := make(map[string]string)
	for i, subject := range req.Subjects {
		p, err := s.validateProgress(subject)
		if err != nil {
			reasons[fmt.Sprintf("subjects[%d]", i)] = describeSubjectError(subject.SubjectName, err)
			continue
		}
		progress = append(progress, p)
	}
	if len(reasons) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "one or more subjects are invalid").WithDetails(reasons)
	}

	resp := &dto.BatchRequiredMarksResponse{Results: make([]dto.RequiredMarksResponse, 0, len(progress))}
	for _, p := range progress {
		result := s.solve(p)
		if result.Achievable {
			resp.Achievable++
		} else {
			resp.Unachievable++
		}
		resp.Results = append(resp.Results, result)
	}
	return resp, nil
}

// ResetCache drops cached required-marks results. Call it after the historical table
// changes, since cached results were computed against the previous one.
func (s *CalculatorService) ResetCache(ctx context.Context) error {
	return s.cache.Invalidate(ctx, cacheNamespaceRequired+":*")
}

func (s *CalculatorService) solve(p grading.SubjectProgress) dto.RequiredMarksResponse {
	result := s.solver.Solve(p)
	s.metrics.RecordPrediction(string(result.Basis))
	s.logger.Debug("required marks solved",
		zap.String("subject", p.SubjectName),
		zap.String("target", string(p.TargetGrade)),
		zap.String("basis", string(result.Basis)),
		zap.Float64("required", result.RequiredMarks),
	)
	return dto.NewRequiredMarksResponse(p, result)
}

func (s *CalculatorService) validateProgress(req dto.ProgressRequest) (grading.SubjectProgress, error) {
	if err := s.validator.Struct(req); err != nil {
		return grading.SubjectProgress{}, validationError(err, "invalid subject progress payload")
	}
	for _, c := range req.Components {
		if c.Earned > c.Max {
			return grading.SubjectProgress{}, appErrors.Clone(appErrors.ErrInvalidMarks,
				fmt.Sprintf("%s marks %.1f exceed the maximum of %.1f", c.Name, c.Earned, c.Max))
		}
	}
	return req.Progress(), nil
}

func (s *CalculatorService) lookup(ctx context.Context, key string, dest interface{}) bool {
	if !s.cache.Enabled() {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		return false
	}
	return hit
}

func (s *CalculatorService) store(ctx context.Context, key string, value interface{}) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("calculator cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func describeSubjectError(name string, err error) string {
	appErr := appErrors.FromError(err)
	label := name
	if label == "" {
		label = "unnamed subject"
	}
	if details, ok := appErr.Details.(map[string]string); ok && len(details) > 0 {
		parts := make([]string, 0, len(details))
		for _, field := range sortedKeys(details) {
			parts = append(parts, field+" "+details[field])
		}
		return fmt.Sprintf("%s: %s", label, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("%s: %s", label, appErr.Message)
}
