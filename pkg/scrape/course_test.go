package scrape

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prereqFragment = `<table>
	<tr><th>And/Or</th><th></th><th>Test</th><th>Score</th><th>Subject</th><th>Course Number</th><th>Level</th><th>Grade</th><th></th></tr>
	<tr><td></td><td></td><td></td><td></td><td>Mathematics</td><td>1341</td><td>UG</td><td>C-</td><td></td></tr>
</table>`

const emptyReqFragment = `<table>
	<tr><th>And/Or</th><th></th><th>Test</th><th>Score</th><th>Subject</th><th>Course Number</th><th>Level</th><th>Grade</th><th></th></tr>
</table>`

func courseServer(t *testing.T, descFetches *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/searchResults/getCourseDescription", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(descFetches, 1)
		fmt.Fprint(w, " Fundamentals of computation &amp;amp; programming. ")
	})
	mux.HandleFunc("/searchResults/getSectionPrerequisites", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, prereqFragment)
	})
	mux.HandleFunc("/searchResults/getCorequisites", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, emptyReqFragment)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestAggregatorCollapse(t *testing.T) {
	var descFetches int32
	server := courseServer(t, &descFetches)
	cl := NewClient(colly.NewCollector(), server.URL)

	sections := []Section{
		{CRN: "10001", TermID: "202110", Subject: "CS", ClassID: "2500", Host: "neu.edu", Name: "Fundamentals of CS 1"},
		{CRN: "10002", TermID: "202110", Subject: "CS", ClassID: "2500", Host: "neu.edu", Name: "Fundamentals of CS 1"},
		{CRN: "20001", TermID: "202110", Subject: "MATH", ClassID: "1341", Host: "neu.edu", Name: "Calculus 1"},
		{CRN: "10003", TermID: "202110", Subject: "CS", ClassID: "2500", Host: "neu.edu", Name: "Fundamentals of CS 1"},
	}

	aggregator := NewAggregator(cl, testSubjects)
	courses := aggregator.Collapse(sections)

	require.Len(t, courses, 2)
	// First-seen order survives aggregation.
	assert.Equal(t, "2500", courses[0].ClassID)
	assert.Equal(t, []string{"10001", "10002", "10003"}, courses[0].CRNs)
	assert.Equal(t, "1341", courses[1].ClassID)
	assert.Equal(t, []string{"20001"}, courses[1].CRNs)

	// The expensive fetches happen once per course, not once per section.
	assert.Equal(t, int32(2), atomic.LoadInt32(&descFetches))

	// Banner double-encodes entities, so the description is decoded twice.
	assert.Equal(t, "Fundamentals of computation & programming.", courses[0].Desc)

	require.NotNil(t, courses[0].Prereqs)
	assert.Equal(t, []ReqValue{{Subject: "MATH", ClassID: "1341"}}, courses[0].Prereqs.Values)
	assert.Nil(t, courses[0].Coreqs)
}

func TestNewCourse(t *testing.T) {
	cl := NewClient(colly.NewCollector(), DefaultBaseURL)

	course := cl.newCourse(Section{
		CRN:             "12345",
		TermID:          "202110",
		Subject:         "CS",
		ClassID:         "3500",
		Host:            "neu.edu",
		Name:            "Object-Oriented Design",
		MinCredits:      4,
		MaxCredits:      4,
		ClassAttributes: []string{"UG College of Engineering"},
		LastUpdateTime:  1600000000000,
	})

	assert.Equal(t, []string{"12345"}, course.CRNs)
	assert.Equal(t, "Object-Oriented Design", course.Name)
	assert.Equal(t, DefaultCatalogURL+"/bwckctlg.p_disp_course_detail?cat_term_in=202110&subj_code_in=CS&crse_numb_in=3500", course.PrettyURL)
	assert.Equal(t, DefaultCatalogURL+"/bwckctlg.p_disp_listcrse?term_in=202110&subj_in=CS&crse_in=3500&schd_in=%", course.URL)
	assert.Equal(t, int64(1600000000000), course.LastUpdateTime)
}

func TestClassHash(t *testing.T) {
	a := Section{Host: "neu.edu", TermID: "202110", Subject: "CS", ClassID: "2500", CRN: "10001"}
	b := Section{Host: "neu.edu", TermID: "202110", Subject: "CS", ClassID: "2500", CRN: "10002"}
	c := Section{Host: "neu.edu", TermID: "202130", Subject: "CS", ClassID: "2500", CRN: "10001"}

	assert.Equal(t, a.ClassHash(), b.ClassHash())
	assert.NotEqual(t, a.ClassHash(), c.ClassHash())
	assert.Equal(t, "neu.edu/202110/CS/2500", a.ClassHash())
}
