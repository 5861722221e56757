package grading

import (
	"math"
	"strings"
)

// HistoricalTolerance is the widest gap, in percentage points, between a student's
// partial component and a historical one for the record to count as similar.
const HistoricalTolerance = 5.0

// SubjectID identifies a catalog subject that has historical data.
type SubjectID string

const (
	SubjectDAA SubjectID = "daa"
	SubjectCN  SubjectID = "cn"
	SubjectSE  SubjectID = "se"
	SubjectCC  SubjectID = "cc"
)

// CatalogSubject describes a known subject.
type CatalogSubject struct {
	ID   SubjectID `json:"id"`
	Name string    `json:"name"`
}

var catalog = [...]CatalogSubject{
	{ID: SubjectDAA, Name: "Design and Analysis of Algorithms"},
	{ID: SubjectCN, Name: "Computer Networks"},
	{ID: SubjectSE, Name: "Software Engineering"},
	{ID: SubjectCC, Name: "Cloud Computing"},
}

// Catalog returns the known subjects.
func Catalog() []CatalogSubject {
	out := make([]CatalogSubject, len(catalog))
	copy(out, catalog[:])
	return out
}

// Valid reports whether id belongs to the catalog.
func (id SubjectID) Valid() bool {
	for _, s := range catalog {
		if s.ID == id {
			return true
		}
	}
	return false
}

// ResolveSubjectID maps a display name or identifier to its catalog id.
func ResolveSubjectID(name string) (SubjectID, bool) {
	key := strings.TrimSpace(name)
	for _, s := range catalog {
		if strings.EqualFold(s.Name, key) || strings.EqualFold(string(s.ID), key) {
			return s.ID, true
		}
	}
	return "", false
}

// HistoricalSubject holds one past student's marks in a subject.
type HistoricalSubject struct {
	Midterm  float64     `json:"midterm"`
	Internal float64     `json:"internal"`
	Final    float64     `json:"final"`
	Total    float64     `json:"total"`
	Grade    LetterGrade `json:"grade"`
}

// HistoricalRecord holds one past student's marks across catalog subjects.
type HistoricalRecord struct {
	ID       int                             `json:"id"`
	Subjects map[SubjectID]HistoricalSubject `json:"subjects"`
}

// HistoricalTable is a static set of records together with the component maxima they
// were graded against.
type HistoricalTable struct {
	MidtermMax  float64            `json:"midterm_max"`
	InternalMax float64            `json:"internal_max"`
	FinalMax    float64            `json:"final_max"`
	Records     []HistoricalRecord `json:"records"`
}

// DefaultHistory returns the built-in historical table.
func DefaultHistory() HistoricalTable {
	return HistoricalTable{
		MidtermMax:  30,
		InternalMax: 30,
		FinalMax:    40,
		Records: []HistoricalRecord{
			{ID: 1, Subjects: map[SubjectID]HistoricalSubject{
				SubjectDAA: {Midterm: 23, Internal: 18, Final: 20, Total: 61, Grade: GradeC},
				SubjectCN:  {Midterm: 27, Internal: 17, Final: 26, Total: 70, Grade: GradeBPlus},
				SubjectSE:  {Midterm: 11, Internal: 19, Final: 24, Total: 54, Grade: GradeF},
				SubjectCC:  {Midterm: 12, Internal: 14, Final: 32, Total: 58, Grade: GradeF},
			}},
			{ID: 2, Subjects: map[SubjectID]HistoricalSubject{
				SubjectDAA: {Midterm: 27, Internal: 13, Final: 26, Total: 66, Grade: GradeCPlus},
				SubjectCN:  {Midterm: 24, Internal: 26, Final: 24, Total: 74, Grade: GradeA},
				SubjectSE:  {Midterm: 24, Internal: 28, Final: 37, Total: 89, Grade: GradeAPlus},
				SubjectCC:  {Midterm: 29, Internal: 29, Final: 29, Total: 87, Grade: GradeAPlus},
			}},
		},
	}
}

// Clone returns a deep copy of the table.
func (t HistoricalTable) Clone() HistoricalTable {
	out := t
	out.Records = make([]HistoricalRecord, len(t.Records))
	for i, rec := range t.Records {
		subjects := make(map[SubjectID]HistoricalSubject, len(rec.Subjects))
		for id, s := range rec.Subjects {
			subjects[id] = s
		}
		out.Records[i] = HistoricalRecord{ID: rec.ID, Subjects: subjects}
	}
	return out
}

// Match returns the subject entries of every record whose midterm and internal
// percentages are each within HistoricalTolerance of the given ones and whose grade
// equals target. midtermPct and internalPct are percentages of the component maxima.
func (t HistoricalTable) Match(id SubjectID, midtermPct, internalPct float64, target LetterGrade) []HistoricalSubject {
	var matches []HistoricalSubject
	for _, rec := range t.Records {
		s, ok := rec.Subjects[id]
		if !ok || s.Grade != target {
			continue
		}
		if math.Abs(s.Midterm/t.MidtermMax*100-midtermPct) > HistoricalTolerance {
			continue
		}
		if math.Abs(s.Internal/t.InternalMax*100-internalPct) > HistoricalTolerance {
			continue
		}
		matches = append(matches, s)
	}
	return matches
}
