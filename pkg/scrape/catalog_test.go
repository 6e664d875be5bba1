package scrape

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// catalogServer fakes enough of a Banner 9 instance to scrape one term
// end to end: two sections of the same course.
func catalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/classSearch/getTerms", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"code":"202110","description":"Fall 2020 Semester"},
			{"code":"202060","description":"Summer 2020 Semester"}
		]`)
	})
	mux.HandleFunc("/classSearch/get_subject", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"code":"CS","description":"Computer Science"}]`)
	})
	mux.HandleFunc("/term/search", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "fake-session"})
		fmt.Fprint(w, `{"regAllowed":true}`)
	})
	mux.HandleFunc("/searchResults/searchResults", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"totalCount":2,"data":[
			{"term":"202110","courseReferenceNumber":"10001","subject":"CS"},
			{"term":"202110","courseReferenceNumber":"10002","subject":"CS"}
		]}`)
	})
	mux.HandleFunc("/searchResults/getEnrollmentInfo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, enrollmentFragment)
	})
	mux.HandleFunc("/searchResults/getClassDetails", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, classDetailsFragment)
	})
	mux.HandleFunc("/searchResults/getSectionAttributes", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, attributesFragment)
	})
	mux.HandleFunc("/searchResults/getFacultyMeetingTimes", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"fmt":[{"meetingTime":{"beginTime":"0915","building":"Ryder Hall"}}]}`)
	})
	mux.HandleFunc("/searchResults/getCourseDescription", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Object-oriented design &amp;amp; testing.")
	})
	mux.HandleFunc("/searchResults/getSectionPrerequisites", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, emptyReqFragment)
	})
	mux.HandleFunc("/searchResults/getCorequisites", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, emptyReqFragment)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestScrapeCatalog(t *testing.T) {
	server := catalogServer(t)
	cl := NewClient(colly.NewCollector(), server.URL)

	catalog, err := cl.ScrapeCatalog([]string{"202110"})
	require.NoError(t, err)

	require.Len(t, catalog.Colleges, 1)
	assert.Equal(t, DefaultHost, catalog.Colleges[0].Host)

	// Only the requested term survives the filter.
	require.Len(t, catalog.Terms, 1)
	assert.Equal(t, "202110", catalog.Terms[0].TermID)
	assert.Equal(t, "Fall 2020", catalog.Terms[0].Text)

	require.Len(t, catalog.Subjects, 1)
	assert.Equal(t, "CS", catalog.Subjects[0].Subject)

	// Two sections of the same course collapse into one record.
	require.Len(t, catalog.Classes, 1)
	course := catalog.Classes[0]
	// CRNs keep the order the section listing returned them in.
	assert.Equal(t, []string{"10001", "10002"}, course.CRNs)
	assert.Equal(t, "3500", course.ClassID)
	assert.Equal(t, "Object-Oriented Design", course.Name)
	assert.Equal(t, "Object-oriented design & testing.", course.Desc)
	assert.Nil(t, course.Prereqs)
	assert.Nil(t, course.Coreqs)

	require.Len(t, catalog.Sections, 2)
	for _, section := range catalog.Sections {
		assert.True(t, section.Honors)
		assert.True(t, section.Online)
		assert.Equal(t, 30, section.SeatsCapacity)
		assert.Contains(t, section.URL, "bwckschd.p_disp_detail_sched")
		// Course-only fields are stripped off the final records.
		assert.Empty(t, section.Name)
		assert.Nil(t, section.ClassAttributes)
		require.Len(t, section.Meetings, 1)
		assert.Equal(t, "Ryder Hall", section.Meetings[0]["building"])
	}
}

func TestScrapeCatalogUnknownTerm(t *testing.T) {
	server := catalogServer(t)
	cl := NewClient(colly.NewCollector(), server.URL)

	_, err := cl.ScrapeCatalog([]string{"199910"})
	assert.Error(t, err)
}
