package grading

// LetterGrade is one of the fixed ordered grades A+ through F.
type LetterGrade string

const (
	GradeAPlus LetterGrade = "A+"
	GradeA     LetterGrade = "A"
	GradeBPlus LetterGrade = "B+"
	GradeB     LetterGrade = "B"
	GradeCPlus LetterGrade = "C+"
	GradeC     LetterGrade = "C"
	GradeD     LetterGrade = "D"
	GradeF     LetterGrade = "F"
)

// Valid reports whether g is a member of the letter grade set.
func (g LetterGrade) Valid() bool {
	for _, entry := range scaleTable {
		if entry.Grade == g {
			return true
		}
	}
	return false
}

// ScaleEntry maps a percentage threshold to a letter grade and grade points.
type ScaleEntry struct {
	Grade         LetterGrade `json:"grade"`
	Points        float64     `json:"points"`
	MinPercentage float64     `json:"min_percentage"`
}

// scaleTable is ordered by descending MinPercentage and never modified.
var scaleTable = [...]ScaleEntry{
	{Grade: GradeAPlus, Points: 10, MinPercentage: 90},
	{Grade: GradeA, Points: 9, MinPercentage: 80},
	{Grade: GradeBPlus, Points: 8, MinPercentage: 70},
	{Grade: GradeB, Points: 7, MinPercentage: 60},
	{Grade: GradeCPlus, Points: 6, MinPercentage: 50},
	{Grade: GradeC, Points: 5, MinPercentage: 40},
	{Grade: GradeD, Points: 4, MinPercentage: 30},
	{Grade: GradeF, Points: 0, MinPercentage: 0},
}

// Scale returns a copy of the grade scale, highest threshold first.
func Scale() []ScaleEntry {
	out := make([]ScaleEntry, len(scaleTable))
	copy(out, scaleTable[:])
	return out
}

// Grades lists every letter grade from highest to lowest.
func Grades() []LetterGrade {
	out := make([]LetterGrade, len(scaleTable))
	for i, entry := range scaleTable {
		out[i] = entry.Grade
	}
	return out
}

// GradeForPercentage returns the grade of the highest threshold not above p.
// Percentages below every threshold (including negatives) map to F.
func GradeForPercentage(p float64) LetterGrade {
	for _, entry := range scaleTable {
		if p >= entry.MinPercentage {
			return entry.Grade
		}
	}
	return GradeF
}

// MinPercentageForGrade returns the threshold for g, or 0 for an unknown grade.
func MinPercentageForGrade(g LetterGrade) float64 {
	if entry, ok := lookup(g); ok {
		return entry.MinPercentage
	}
	return 0
}

// PointsForGrade returns the grade points for g, or 0 for an unknown grade.
func PointsForGrade(g LetterGrade) float64 {
	if entry, ok := lookup(g); ok {
		return entry.Points
	}
	return 0
}

func lookup(g LetterGrade) (ScaleEntry, bool) {
	for _, entry := range scaleTable {
		if entry.Grade == g {
			return entry, true
		}
	}
	return ScaleEntry{}, false
}
