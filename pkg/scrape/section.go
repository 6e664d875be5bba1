package scrape

import (
	"bytes"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// SectionDetails fetches and merges everything Banner exposes about one
// section: enrollment counts, class details, attributes, and meeting
// times. The four endpoints are independent, so the requests go out at
// once. Nothing here aborts the section; missing pieces degrade to
// zero values with a diagnostic.
func (cl *Client) SectionDetails(stub SectionStub) Section {
	var (
		seats    seatInfo
		details  classDetails
		attrs    []string
		meetings []Meeting
	)
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		seats = cl.getSeats(stub.Term, stub.CRN)
	}()
	go func() {
		defer wg.Done()
		details = cl.getClassDetails(stub.Term, stub.CRN)
	}()
	go func() {
		defer wg.Done()
		attrs = cl.getSectionAttributes(stub.Term, stub.CRN)
	}()
	go func() {
		defer wg.Done()
		meetings = cl.getMeetingTimes(stub.Term, stub.CRN)
	}()
	wg.Wait()

	return Section{
		SeatsCapacity:  seats.capacity,
		SeatsRemaining: seats.remaining,
		WaitCapacity:   seats.waitCapacity,
		WaitRemaining:  seats.waitRemaining,
		Online:         details.online,
		ScheduleType:   details.scheduleType,
		Meetings:       meetings,
		CRN:            stub.CRN,
		TermID:         stub.Term,
		// Class details report the long subject name ("Mathematics");
		// the stub carries the abbreviation, which is what the catalog
		// keys on.
		Subject:         stub.Subject,
		ClassID:         details.classID,
		Host:            cl.Host,
		LastUpdateTime:  time.Now().UnixMilli(),
		Name:            details.name,
		MaxCredits:      details.credits,
		MinCredits:      details.credits,
		ClassAttributes: attrs,
	}
}

// Strip finalizes a section record: the attribute list collapses into
// the honors flag and the fields that only feed course records go away.
func (s *Section) Strip(catalogURL string) {
	s.URL = fmt.Sprintf("%s/bwckschd.p_disp_detail_sched?term_in=%s&crn_in=%s",
		catalogURL, s.TermID, s.CRN)
	s.Honors = containsHonors(s.ClassAttributes)
	s.ClassAttributes = nil
	s.Name = ""
	s.MaxCredits = 0
	s.MinCredits = 0
}

// containsHonors reports whether any class attribute marks the section
// as an honors offering, e.g. "Honors  GNHN".
func containsHonors(attributes []string) bool {
	for _, a := range attributes {
		if strings.Contains(strings.ToLower(a), "honors") {
			return true
		}
	}
	return false
}

type seatInfo struct {
	capacity      int
	remaining     int
	waitCapacity  int
	waitRemaining int
}

// getSeats reads the enrollment-info fragment, a flat list of label
// elements each followed by a number. A missing label defaults its
// field to 0 and logs, never fails the section.
func (cl *Client) getSeats(termID, crn string) seatInfo {
	var info seatInfo
	resp, err := cl.detail("getEnrollmentInfo", termID, crn)
	if err != nil {
		log.Println("Warning: enrollment info request failed:", err)
		return info
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		log.Println("Warning: enrollment info is not parseable:", err)
		return info
	}

	for _, field := range []struct {
		dst   *int
		label string
	}{
		{&info.capacity, "Enrollment Maximum:"},
		{&info.remaining, "Enrollment Seats Available:"},
		{&info.waitCapacity, "Waitlist Capacity:"},
		{&info.waitRemaining, "Waitlist Seats Available:"},
	} {
		text, ok := siblingText(doc, field.label)
		if !ok {
			log.Printf("Warning: seat label %q not found for term %s crn %s, assigning 0", field.label, termID, crn)
			continue
		}
		n, err := strconv.Atoi(text)
		if err != nil {
			log.Printf("Warning: seat value %q under %q is not a number, assigning 0", text, field.label)
			continue
		}
		*field.dst = n
	}
	return info
}

type classDetails struct {
	online       bool
	scheduleType string
	subject      string
	classID      string
	name         string
	credits      int
}

func (cl *Client) getClassDetails(termID, crn string) classDetails {
	var d classDetails
	resp, err := cl.detail("getClassDetails", termID, crn)
	if err != nil {
		log.Println("Warning: class details request failed:", err)
		return d
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		log.Println("Warning: class details are not parseable:", err)
		return d
	}

	credits, err := strconv.Atoi(labelText(doc, "Credit Hours:"))
	if err != nil {
		log.Printf("Warning: no credit hours for term %s crn %s, assigning 0", termID, crn)
	}
	d.credits = credits
	d.online = labelText(doc, "Campus:") == "Online"
	d.scheduleType = labelText(doc, "Schedule Type:")
	d.subject = doc.Find("#subject").Text()
	d.classID = doc.Find("#courseNumber").Text()
	d.name = doc.Find("#courseTitle").Text()
	return d
}

func (cl *Client) getSectionAttributes(termID, crn string) []string {
	resp, err := cl.detail("getSectionAttributes", termID, crn)
	if err != nil {
		log.Println("Warning: section attributes request failed:", err)
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		log.Println("Warning: section attributes are not parseable:", err)
		return nil
	}
	var attrs []string
	doc.Find(".attribute-text").Each(func(_ int, s *goquery.Selection) {
		attrs = append(attrs, strings.TrimSpace(s.Text()))
	})
	return attrs
}

// siblingText finds the element whose own text is exactly label and
// returns the trimmed text of its next sibling element.
func siblingText(doc *goquery.Document, label string) (string, bool) {
	var out string
	found := false
	doc.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) == label {
			out = strings.TrimSpace(s.Next().Text())
			found = true
			return false
		}
		return true
	})
	return out, found
}

// labelText returns the trimmed text node that follows the element
// containing exactly label, e.g. the "Boston" in
// "<span>Campus: </span> Boston <br/>".
func labelText(doc *goquery.Document, label string) string {
	var out string
	doc.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) != label {
			return true
		}
		for n := s.Nodes[0].NextSibling; n != nil; n = n.NextSibling {
			if n.Type == html.TextNode {
				if text := strings.TrimSpace(n.Data); text != "" {
					out = text
					break
				}
				continue
			}
			if n.Type == html.ElementNode {
				break
			}
		}
		return false
	})
	return out
}
