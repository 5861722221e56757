package service

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradepro-api/internal/dto"
	"github.com/noah-isme/gradepro-api/internal/grading"
	"github.com/noah-isme/gradepro-api/internal/models"
)

type subjectGuidance struct {
	label      string
	highAdvice string
	baseAdvice string
	highFocus  []string
	baseFocus  []string
}

var guidanceBySubject = map[grading.SubjectID]subjectGuidance{
	grading.SubjectDAA: {
		label:      "DAA",
		highAdvice: "master advanced algorithm analysis and optimization techniques",
		baseAdvice: "focus on understanding basic algorithm concepts",
		highFocus: []string{
			"Advanced algorithm analysis",
			"Complex optimization techniques",
			"Time and space complexity proofs",
			"Advanced dynamic programming",
			"Network flow algorithms",
		},
		baseFocus: []string{"Basic sorting algorithms", "Simple data structures", "Basic complexity analysis"},
	},
	grading.SubjectCN: {
		label:      "Computer Networks",
		highAdvice: "dive deep into protocol specifications and network architectures",
		baseAdvice: "focus on the fundamental networking concepts",
		highFocus: []string{
			"Advanced protocol analysis",
			"Network security concepts",
			"Complex routing algorithms",
			"Performance optimization",
		},
		baseFocus: []string{"OSI model layers", "Basic routing concepts", "Common protocols (TCP/IP)"},
	},
	grading.SubjectSE: {
		label:      "Software Engineering",
		highAdvice: "master advanced design patterns and project management methodologies",
		baseAdvice: "understand the software development lifecycle",
		highFocus: []string{
			"Advanced design patterns",
			"Project estimation techniques",
			"Risk management",
			"Software architecture",
		},
		baseFocus: []string{"Basic SDLC models", "Requirements gathering", "Simple testing methods"},
	},
	grading.SubjectCC: {
		label:      "Cloud Computing",
		highAdvice: "understand advanced cloud architectures and deployment models",
		baseAdvice: "grasp the basic cloud service models",
		highFocus: []string{
			"Advanced cloud security",
			"Multi-cloud strategies",
			"Cost optimization techniques",
			"Cloud design patterns",
		},
		baseFocus: []string{"Basic cloud models (IaaS, PaaS, SaaS)", "Simple deployment methods", "Cloud providers overview"},
	},
}

var genericFocus = []string{"Key concepts", "Basic principles"}

var strategiesByDifficulty = map[models.Difficulty][]string{
	models.DifficultyHigh: {
		"Create detailed mind maps for complex topics",
		"Practice with previous year papers extensively",
		"Form study groups with high-performing peers",
		"Schedule daily revision sessions",
		"Seek additional guidance from professors",
	},
	models.DifficultyMedium: {
		"Regular revision of key topics",
		"Focus on important concepts",
		"Practice sample questions",
	},
	models.DifficultyLow: {
		"Review basic concepts",
		"Practice essential problems",
	},
}

var weeklyHours = map[grading.LetterGrade]int{
	grading.GradeAPlus: 15,
	grading.GradeA:     12,
	grading.GradeBPlus: 9,
	grading.GradeB:     7,
}

// AdviceService produces study guidance for a subject and target grade.
type AdviceService struct {
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdviceService constructs an AdviceService.
func NewAdviceService(validate *validator.Validate, logger *zap.Logger) *AdviceService {
	if validate == nil {
		validate = NewValidator()
	} else {
		registerValidations(validate)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdviceService{validator: validate, logger: logger}
}

// Advise validates the request and generates advice for it.
func (s *AdviceService) Advise(req dto.AdviceRequest) (*models.StudyAdvice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid advice payload")
	}
	advice := GenerateAdvice(strings.TrimSpace(req.SubjectName), grading.LetterGrade(req.TargetGrade))
	return &advice, nil
}

// GenerateAdvice builds study advice for subjectName. Subjects outside the catalog get
// generic focus areas.
func GenerateAdvice(subjectName string, grade grading.LetterGrade) models.StudyAdvice {
	difficulty := DifficultyForGrade(grade)
	intensity := intensitySentence(difficulty, grade)

	advice := models.StudyAdvice{
		Subject:             subjectName,
		TargetGrade:         grade,
		Advice:              intensity,
		FocusAreas:          append([]string(nil), genericFocus...),
		StudyStrategies:     append([]string(nil), strategiesByDifficulty[difficulty]...),
		DifficultyLevel:     difficulty,
		EstimatedStudyHours: StudyHoursForGrade(grade),
	}

	id, ok := grading.ResolveSubjectID(subjectName)
	if !ok {
		return advice
	}
	guidance := guidanceBySubject[id]
	if difficulty == models.DifficultyHigh {
		advice.Advice = fmt.Sprintf("%s For %s, %s.", intensity, guidance.label, guidance.highAdvice)
		advice.FocusAreas = append([]string(nil), guidance.highFocus...)
	} else {
		advice.Advice = fmt.Sprintf("%s For %s, %s.", intensity, guidance.label, guidance.baseAdvice)
		advice.FocusAreas = append([]string(nil), guidance.baseFocus...)
	}
	return advice
}

// DifficultyForGrade rates how demanding a target grade is.
func DifficultyForGrade(grade grading.LetterGrade) models.Difficulty {
	switch grade {
	case grading.GradeAPlus, grading.GradeA:
		return models.DifficultyHigh
	case grading.GradeBPlus, grading.GradeB:
		return models.DifficultyMedium
	default:
		return models.DifficultyLow
	}
}

// StudyHoursForGrade estimates weekly study hours for a target grade.
func StudyHoursForGrade(grade grading.LetterGrade) int {
	if hours, ok := weeklyHours[grade]; ok {
		return hours
	}
	return 5
}

func intensitySentence(difficulty models.Difficulty, grade grading.LetterGrade) string {
	switch difficulty {
	case models.DifficultyHigh:
		return fmt.Sprintf("To achieve an %s grade, you'll need exceptional dedication and a comprehensive study approach.", grade)
	case models.DifficultyMedium:
		return fmt.Sprintf("For a %s grade, maintain consistent study habits and focus on core concepts.", grade)
	default:
		return "Focus on understanding the fundamental concepts."
	}
}
