package database

import (
	"encoding/json"

	"github.com/openswoop/banner9/pkg/scrape"
)

// Row types flatten the catalog for storage: both sqlite and BigQuery
// want flat records, so nested meetings and requisite trees travel as
// JSON text.

type TermRow struct {
	TermID         string `db:"term_id" csv:"term_id"`
	Text           string `db:"text" csv:"text"`
	Host           string `db:"host" csv:"host"`
	SubCollegeName string `db:"sub_college_name" csv:"sub_college_name"`
}

type SubjectRow struct {
	Code   string `db:"code" csv:"code"`
	Text   string `db:"text" csv:"text"`
	TermID string `db:"term_id" csv:"term_id"`
	Host   string `db:"host" csv:"host"`
}

type SectionRow struct {
	Crn            string `db:"crn" csv:"crn"`
	TermID         string `db:"term_id" csv:"term_id"`
	Subject        string `db:"subject" csv:"subject"`
	ClassID        string `db:"class_id" csv:"class_id"`
	SeatsCapacity  int    `db:"seats_capacity" csv:"seats_capacity"`
	SeatsRemaining int    `db:"seats_remaining" csv:"seats_remaining"`
	WaitCapacity   int    `db:"wait_capacity" csv:"wait_capacity"`
	WaitRemaining  int    `db:"wait_remaining" csv:"wait_remaining"`
	Online         bool   `db:"online" csv:"online"`
	Honors         bool   `db:"honors" csv:"honors"`
	ScheduleType   string `db:"schedule_type" csv:"schedule_type"`
	URL            string `db:"url" csv:"url"`
	Meetings       string `db:"meetings" csv:"-"`
	LastUpdateTime int64  `db:"last_update_time" csv:"last_update_time"`
}

type CourseRow struct {
	ClassID        string `db:"class_id" csv:"class_id"`
	Subject        string `db:"subject" csv:"subject"`
	TermID         string `db:"term_id" csv:"term_id"`
	Host           string `db:"host" csv:"host"`
	Name           string `db:"name" csv:"name"`
	Desc           string `db:"description" csv:"description"`
	Crns           string `db:"crns" csv:"crns"`
	PrettyURL      string `db:"pretty_url" csv:"pretty_url"`
	URL            string `db:"url" csv:"url"`
	MinCredits     int    `db:"min_credits" csv:"min_credits"`
	MaxCredits     int    `db:"max_credits" csv:"max_credits"`
	Prereqs        string `db:"prereqs" csv:"-"`
	Coreqs         string `db:"coreqs" csv:"-"`
	LastUpdateTime int64  `db:"last_update_time" csv:"last_update_time"`
}

func NewTermRow(t scrape.Term) TermRow {
	return TermRow{TermID: t.TermID, Text: t.Text, Host: t.Host, SubCollegeName: t.SubCollegeName}
}

func NewSubjectRow(s scrape.Subject) SubjectRow {
	return SubjectRow{Code: s.Subject, Text: s.Text, TermID: s.TermID, Host: s.Host}
}

func NewSectionRow(s scrape.Section) SectionRow {
	return SectionRow{
		Crn:            s.CRN,
		TermID:         s.TermID,
		Subject:        s.Subject,
		ClassID:        s.ClassID,
		SeatsCapacity:  s.SeatsCapacity,
		SeatsRemaining: s.SeatsRemaining,
		WaitCapacity:   s.WaitCapacity,
		WaitRemaining:  s.WaitRemaining,
		Online:         s.Online,
		Honors:         s.Honors,
		ScheduleType:   s.ScheduleType,
		URL:            s.URL,
		Meetings:       asJSON(s.Meetings),
		LastUpdateTime: s.LastUpdateTime,
	}
}

func NewCourseRow(c scrape.Course) CourseRow {
	return CourseRow{
		ClassID:        c.ClassID,
		Subject:        c.Subject,
		TermID:         c.TermID,
		Host:           c.Host,
		Name:           c.Name,
		Desc:           c.Desc,
		Crns:           asJSON(c.CRNs),
		PrettyURL:      c.PrettyURL,
		URL:            c.URL,
		MinCredits:     c.MinCredits,
		MaxCredits:     c.MaxCredits,
		Prereqs:        requisiteJSON(c.Prereqs),
		Coreqs:         requisiteJSON(c.Coreqs),
		LastUpdateTime: c.LastUpdateTime,
	}
}

func requisiteJSON(r *scrape.Requisite) string {
	if r == nil {
		return ""
	}
	return asJSON(r)
}

func asJSON(v interface{}) string {
	if v == nil {
		return ""
	}
	out, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(out)
}
