package report

import (
	"sort"

	"github.com/openswoop/banner9/pkg/database"
	"github.com/openswoop/banner9/pkg/scrape"
)

// WriteSections dumps one row per section, ordered by term then crn so
// diffs between runs stay readable.
func WriteSections(name string, sections []scrape.Section) error {
	rows := make(sectionReport, 0, len(sections))
	for _, s := range sections {
		rows = append(rows, database.NewSectionRow(s))
	}
	sort.Sort(rows)
	return WriteCsv(rows, name+".csv")
}

type sectionReport []database.SectionRow

func (r sectionReport) Len() int {
	return len(r)
}

func (r sectionReport) Swap(i, j int) {
	r[i], r[j] = r[j], r[i]
}

func (r sectionReport) Less(i, j int) bool {
	if r[i].TermID != r[j].TermID {
		return r[i].TermID < r[j].TermID
	}
	return r[i].Crn < r[j].Crn
}

// WriteCourses dumps one row per collapsed course.
func WriteCourses(name string, courses []scrape.Course) error {
	rows := make(courseReport, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, database.NewCourseRow(c))
	}
	sort.Sort(rows)
	return WriteCsv(rows, name+".csv")
}

type courseReport []database.CourseRow

func (r courseReport) Len() int {
	return len(r)
}

func (r courseReport) Swap(i, j int) {
	r[i], r[j] = r[j], r[i]
}

func (r courseReport) Less(i, j int) bool {
	if r[i].TermID != r[j].TermID {
		return r[i].TermID < r[j].TermID
	}
	if r[i].Subject != r[j].Subject {
		return r[i].Subject < r[j].Subject
	}
	return r[i].ClassID < r[j].ClassID
}
