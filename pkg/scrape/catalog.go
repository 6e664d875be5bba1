package scrape

import (
	"fmt"
	"log"
	"sync"
)

// DetailConcurrency bounds the number of section detail fetches in
// flight at once, across every term of a run.
const DetailConcurrency = 300

// maxTerms is how many terms to page in when listing the registration
// periods the system knows about.
const maxTerms = 100

type College struct {
	Host  string `json:"host"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Term is one academic registration period.
type Term struct {
	TermID         string `json:"termId"`
	Text           string `json:"text"`
	Host           string `json:"host"`
	SubCollegeName string `json:"subCollegeName,omitempty"`
}

// Subject is one subject offered within a term.
type Subject struct {
	Subject string `json:"subject"`
	Text    string `json:"text"`
	TermID  string `json:"termId"`
	Host    string `json:"host"`
}

// SectionStub is one entry of the paged section search, the seed for a
// section detail fetch.
type SectionStub struct {
	Term    string `json:"term"`
	CRN     string `json:"courseReferenceNumber"`
	Subject string `json:"subject"`
}

// Meeting comes out of the meeting-times payload and is carried through
// to the catalog opaquely.
type Meeting map[string]interface{}

// Section is one specific offering of a course within a term.
type Section struct {
	SeatsCapacity  int       `json:"seatsCapacity"`
	SeatsRemaining int       `json:"seatsRemaining"`
	WaitCapacity   int       `json:"waitCapacity"`
	WaitRemaining  int       `json:"waitRemaining"`
	Online         bool      `json:"online"`
	Honors         bool      `json:"honors"`
	ScheduleType   string    `json:"scheduleType,omitempty"`
	URL            string    `json:"url,omitempty"`
	Meetings       []Meeting `json:"meetings"`
	CRN            string    `json:"crn"`
	TermID         string    `json:"termId"`
	Subject        string    `json:"subject"`
	ClassID        string    `json:"classId"`
	Host           string    `json:"host"`
	LastUpdateTime int64     `json:"lastUpdateTime"`

	// Carried only until the course record is built; Strip clears them.
	Name            string   `json:"-"`
	MaxCredits      int      `json:"-"`
	MinCredits      int      `json:"-"`
	ClassAttributes []string `json:"-"`
}

// ClassHash is the structural identity of the course a section belongs
// to. Sections with equal hashes collapse into one course record.
func (s *Section) ClassHash() string {
	return s.Host + "/" + s.TermID + "/" + s.Subject + "/" + s.ClassID
}

// Course is the aggregate of every section sharing one class hash.
type Course struct {
	CRNs            []string   `json:"crns"`
	ClassAttributes []string   `json:"classAttributes,omitempty"`
	Desc            string     `json:"desc"`
	ClassID         string     `json:"classId"`
	PrettyURL       string     `json:"prettyUrl"`
	Name            string     `json:"name"`
	URL             string     `json:"url"`
	LastUpdateTime  int64      `json:"lastUpdateTime"`
	MaxCredits      int        `json:"maxCredits"`
	MinCredits      int        `json:"minCredits"`
	TermID          string     `json:"termId"`
	Host            string     `json:"host"`
	Subject         string     `json:"subject"`
	Prereqs         *Requisite `json:"prereqs,omitempty"`
	Coreqs          *Requisite `json:"coreqs,omitempty"`
}

// Catalog is the merged output of one scrape run.
type Catalog struct {
	Colleges []College `json:"colleges"`
	Terms    []Term    `json:"terms"`
	Subjects []Subject `json:"subjects"`
	Classes  []Course  `json:"classes"`
	Sections []Section `json:"sections"`
}

// ScrapeCatalog runs the whole pipeline for the requested term ids and
// assembles the normalized catalog. Individual fetch failures degrade
// to partial data; only a run with no resolvable terms or subjects at
// all is an error.
func (cl *Client) ScrapeCatalog(termIDs []string) (*Catalog, error) {
	known, err := cl.GetTerms(maxTerms)
	if err != nil {
		return nil, err
	}
	var terms []Term
	for _, t := range known {
		if contains(termIDs, t.TermID) {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("none of the requested terms %v are offered", termIDs)
	}

	ids := make([]string, len(terms))
	for i, t := range terms {
		ids[i] = t.TermID
	}
	log.Println("scraping terms", ids)

	// Each term's section listing and subject listing are independent,
	// so everything goes out at once.
	type termData struct {
		stubs    []SectionStub
		subjects []Subject
	}
	perTerm := MapConcurrent(terms, len(terms), func(t Term) termData {
		var td termData
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			stubs, err := cl.GetTermSections(t.TermID)
			if err != nil {
				log.Printf("Error: could not get sections for term %s: %v", t.TermID, err)
			}
			td.stubs = stubs
		}()
		go func() {
			defer wg.Done()
			subjects, err := cl.GetSubjects(t)
			if err != nil {
				log.Printf("Error: could not get subjects for term %s: %v", t.TermID, err)
			}
			td.subjects = subjects
		}()
		wg.Wait()
		return td
	})

	var stubs []SectionStub
	var subjects []Subject
	for _, td := range perTerm {
		stubs = append(stubs, td.stubs...)
		subjects = append(subjects, td.subjects...)
	}
	if len(subjects) == 0 {
		return nil, fmt.Errorf("no subjects resolvable for terms %v", termIDs)
	}

	log.Println("scraping", len(stubs), "sections")
	sections := MapConcurrent(stubs, DetailConcurrency, cl.SectionDetails)
	log.Println("all sections scraped")

	table := NewSubjectTable(subjects)
	aggregator := NewAggregator(cl, table)
	classes := aggregator.Collapse(sections)

	for i := range sections {
		sections[i].Strip(cl.CatalogURL)
	}

	return &Catalog{
		Colleges: []College{{Host: cl.Host, Title: cl.College, URL: cl.Host}},
		Terms:    terms,
		Subjects: subjects,
		Classes:  classes,
		Sections: sections,
	}, nil
}
