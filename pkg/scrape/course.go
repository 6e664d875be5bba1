package scrape

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Aggregator folds section records into unique course records, one per
// class hash. The first section seen for a hash wins the expensive
// description and requisite fetches; every later section only
// contributes its CRN. The table is owned by the run and discarded
// with it.
type Aggregator struct {
	client   *Client
	subjects SubjectTable

	mu    sync.Mutex
	table map[string]*Course
	order []string
}

func NewAggregator(client *Client, subjects SubjectTable) *Aggregator {
	return &Aggregator{
		client:   client,
		subjects: subjects,
		table:    make(map[string]*Course),
	}
}

// Add merges one section into the aggregate. The first section seen for
// a hash becomes the course record; every later one only appends its
// CRN, so the CRN list keeps the order sections were added in.
func (a *Aggregator) Add(section Section) {
	hash := section.ClassHash()

	a.mu.Lock()
	defer a.mu.Unlock()
	if course, ok := a.table[hash]; ok {
		course.CRNs = append(course.CRNs, section.CRN)
		return
	}
	a.table[hash] = a.client.newCourse(section)
	a.order = append(a.order, hash)
}

// Collapse aggregates the sections in input order, then fans out the
// per-course description and requisite fetches, and returns the unique
// courses in first-seen order. Scanning before fetching keeps both the
// course order and each course's CRN list deterministic; only the
// network work runs concurrently, one fetch set per course.
func (a *Aggregator) Collapse(sections []Section) []Course {
	for _, s := range sections {
		a.Add(s)
	}
	MapConcurrent(a.order, DetailConcurrency, func(hash string) struct{} {
		a.fill(a.table[hash])
		return struct{}{}
	})
	return a.Courses()
}

// fill fetches the fields that come from the course-level endpoints,
// using the course's first CRN. Run after the scan, so the lock only
// guards against a concurrent reader of the table.
func (a *Aggregator) fill(course *Course) {
	crn := course.CRNs[0]
	desc := a.client.getDescription(course.TermID, crn)
	prereqs := a.client.getPrereqs(course.TermID, crn, a.subjects)
	coreqs := a.client.getCoreqs(course.TermID, crn, a.subjects)

	a.mu.Lock()
	course.Desc = desc
	if !prereqs.Empty() {
		course.Prereqs = prereqs
	}
	if !coreqs.Empty() {
		course.Coreqs = coreqs
	}
	a.mu.Unlock()
}

// Courses lists the aggregated course records in first-seen order.
func (a *Aggregator) Courses() []Course {
	a.mu.Lock()
	defer a.mu.Unlock()
	courses := make([]Course, 0, len(a.order))
	for _, hash := range a.order {
		courses = append(courses, *a.table[hash])
	}
	return courses
}

// newCourse copies the course-level fields off the first section seen
// for a hash. The section's CRN seeds the offered-CRN list.
func (cl *Client) newCourse(section Section) *Course {
	return &Course{
		CRNs:            []string{section.CRN},
		ClassAttributes: section.ClassAttributes,
		ClassID:         section.ClassID,
		Name:            section.Name,
		MaxCredits:      section.MaxCredits,
		MinCredits:      section.MinCredits,
		TermID:          section.TermID,
		Host:            section.Host,
		Subject:         section.Subject,
		LastUpdateTime:  section.LastUpdateTime,
		PrettyURL: fmt.Sprintf("%s/bwckctlg.p_disp_course_detail?cat_term_in=%s&subj_code_in=%s&crse_numb_in=%s",
			cl.CatalogURL, section.TermID, section.Subject, section.ClassID),
		URL: fmt.Sprintf("%s/bwckctlg.p_disp_listcrse?term_in=%s&subj_in=%s&crse_in=%s&schd_in=%%",
			cl.CatalogURL, section.TermID, section.Subject, section.ClassID),
	}
}

// getDescription pulls the catalog description. Banner double-encodes
// the entities, so it gets decoded twice.
func (cl *Client) getDescription(termID, crn string) string {
	resp, err := cl.detail("getCourseDescription", termID, crn)
	if err != nil {
		log.Println("Warning: course description request failed:", err)
		return ""
	}
	return html.UnescapeString(html.UnescapeString(strings.TrimSpace(string(resp.Body))))
}

// requisiteRows decodes the single requisite table out of an endpoint
// body, or nothing if the fragment isn't shaped like one.
func requisiteRows(body []byte) []Row {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	return ParseTable(doc.Find("table"))
}

func (cl *Client) getPrereqs(termID, crn string, subjects SubjectTable) *Requisite {
	resp, err := cl.detail("getSectionPrerequisites", termID, crn)
	if err != nil {
		log.Println("Warning: prerequisites request failed:", err)
		return nil
	}
	return ParseRequisites(requisiteRows(resp.Body), subjects)
}

func (cl *Client) getCoreqs(termID, crn string, subjects SubjectTable) *Requisite {
	resp, err := cl.detail("getCorequisites", termID, crn)
	if err != nil {
		log.Println("Warning: corequisites request failed:", err)
		return nil
	}
	return ParseCorequisites(requisiteRows(resp.Body), subjects)
}
