package scrape

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gocolly/colly/v2"
)

// coursesPerRequest is the page size cap Banner enforces on the
// searchResults endpoint.
const coursesPerRequest = 500

// maxSubjects is the page size for the subject listing.
const maxSubjects = 200

// GetTerms lists up to max terms known to the registration system,
// serialized into catalog Term records.
func (cl *Client) GetTerms(max int) ([]Term, error) {
	u := fmt.Sprintf("%s/classSearch/getTerms?searchTerm=&offset=1&max=%d", cl.BaseURL, max)
	resp, err := get(cl.c, u)
	if err != nil {
		return nil, fmt.Errorf("requesting terms: %w", err)
	}
	var raw []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, fmt.Errorf("decoding terms: %w", err)
	}
	terms := make([]Term, 0, len(raw))
	for _, t := range raw {
		terms = append(terms, cl.serializeTerm(t.Code, t.Description))
	}
	return terms, nil
}

// serializeTerm renames the Banner term fields and tags
// non-undergraduate terms with the sub-college they belong to.
// Undergraduate terms drop the " Semester"/" Quarter" suffix instead.
func (cl *Client) serializeTerm(code, description string) Term {
	term := Term{TermID: code, Text: description, Host: cl.Host}
	if sub := subCollegeName(description); sub == "undergraduate" {
		term.Text = strings.Replace(term.Text, " Semester", "", 1)
		term.Text = strings.Replace(term.Text, " Quarter", "", 1)
	} else {
		term.SubCollegeName = sub
	}
	return term
}

// subCollegeName classifies a term by its description:
// "Spring 2019 Semester" is undergraduate, "Spring 2019 Law Quarter"
// belongs to the law school, "Spring 2019 CPS Quarter" to the College
// of Professional Studies.
func subCollegeName(description string) string {
	if strings.Contains(description, "CPS") {
		return "CPS"
	}
	if strings.Contains(description, "Law") {
		return "LAW"
	}
	return "undergraduate"
}

// GetSubjects lists the subjects offered in a term.
func (cl *Client) GetSubjects(term Term) ([]Subject, error) {
	u := fmt.Sprintf("%s/classSearch/get_subject?searchTerm=&term=%s&offset=1&max=%d",
		cl.BaseURL, term.TermID, maxSubjects)
	resp, err := get(cl.c, u)
	if err != nil {
		return nil, fmt.Errorf("requesting subjects for term %s: %w", term.TermID, err)
	}
	if resp.StatusCode != 200 {
		log.Println("Error: problem with request for subjects:", u)
	}
	var raw []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, fmt.Errorf("decoding subjects for term %s: %w", term.TermID, err)
	}
	subjects := make([]Subject, 0, len(raw))
	for _, s := range raw {
		subjects = append(subjects, Subject{
			Subject: s.Code,
			Text:    s.Description,
			TermID:  term.TermID,
			Host:    term.Host,
		})
	}
	return subjects, nil
}

// searchResult is the JSON shape of one searchResults page.
type searchResult struct {
	Success    bool          `json:"success"`
	TotalCount int           `json:"totalCount"`
	Data       []SectionStub `json:"data"`
}

// GetTermSections walks the paged section listing for a term. The
// search-mode POST has to resolve first: it hands out the session
// cookies every page request must carry. Page failures degrade to
// partial data; only the session and count probes are fatal for the
// term.
func (cl *Client) GetTermSections(termID string) ([]SectionStub, error) {
	session, jar := cl.newSession()

	resp, err := post(session, cl.BaseURL+"/term/search?mode=search", map[string]string{
		"term":            termID,
		"studyPath":       "",
		"studyPathText":   "",
		"startDatepicker": "",
		"endDatepicker":   "",
	})
	if err != nil {
		return nil, fmt.Errorf("establishing session for term %s: %w", termID, err)
	}
	// The POST's cookies come back scoped to /term; every page request
	// below needs them, so they get re-homed onto the base path.
	cl.adoptCookies(jar, resp)
	var clickContinue struct {
		RegAllowed *bool `json:"regAllowed"`
	}
	if err := json.Unmarshal(resp.Body, &clickContinue); err == nil &&
		clickContinue.RegAllowed != nil && !*clickContinue.RegAllowed {
		log.Printf("Error: registration not allowed for term %s, scraping anyway", termID)
	}

	probe, err := cl.searchPage(session, termID, 0, 10)
	if err != nil {
		return nil, fmt.Errorf("counting sections for term %s: %w", termID, err)
	}
	if !probe.Success {
		log.Printf("Error: could not get a section count for term %s", termID)
	}

	offsets := make([]int, 0, probe.TotalCount/coursesPerRequest+1)
	for offset := 0; offset < probe.TotalCount; offset += coursesPerRequest {
		offsets = append(offsets, offset)
	}

	pages := make([]searchResult, len(offsets))
	var wg sync.WaitGroup
	for i, offset := range offsets {
		wg.Add(1)
		go func(i, offset int) {
			defer wg.Done()
			page, err := cl.searchPage(session, termID, offset, coursesPerRequest)
			if err != nil {
				log.Printf("Error: searchResults page at offset %d for term %s failed: %v", offset, termID, err)
				return
			}
			pages[i] = page
		}(i, offset)
	}
	wg.Wait()

	var stubs []SectionStub
	for _, page := range pages {
		if !page.Success {
			log.Printf("Error: one of the searchResults requests for term %s was unsuccessful", termID)
		}
		stubs = append(stubs, page.Data...)
	}
	return stubs, nil
}

// searchPage requests one page of the section search through the
// term's session collector.
func (cl *Client) searchPage(session *colly.Collector, termID string, offset, size int) (searchResult, error) {
	query := url.Values{
		"txt_subject":      {""},
		"txt_courseNumber": {""},
		"txt_term":         {termID},
		"startDatepicker":  {""},
		"endDatepicker":    {""},
		"pageOffset":       {strconv.Itoa(offset)},
		"pageMaxSize":      {strconv.Itoa(size)},
		"sortColumn":       {"subjectDescription"},
		"sortDirection":    {"asc"},
	}
	resp, err := get(session, cl.BaseURL+"/searchResults/searchResults?"+query.Encode())
	if err != nil {
		return searchResult{}, err
	}
	var page searchResult
	if err := json.Unmarshal(resp.Body, &page); err != nil {
		return searchResult{}, fmt.Errorf("decoding searchResults page: %w", err)
	}
	return page, nil
}
