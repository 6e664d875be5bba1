package database

import (
	"testing"

	"github.com/openswoop/banner9/pkg/scrape"
	"github.com/stretchr/testify/assert"
)

func TestNewSectionRow(t *testing.T) {
	row := NewSectionRow(scrape.Section{
		CRN:            "12345",
		TermID:         "202110",
		Subject:        "CS",
		ClassID:        "3500",
		SeatsCapacity:  30,
		SeatsRemaining: 7,
		Online:         true,
		Honors:         true,
		Meetings: []scrape.Meeting{
			{"beginTime": "0915", "building": "Ryder Hall"},
		},
		LastUpdateTime: 1600000000000,
	})

	assert.Equal(t, "12345", row.Crn)
	assert.Equal(t, "202110", row.TermID)
	assert.True(t, row.Online)
	assert.JSONEq(t, `[{"beginTime":"0915","building":"Ryder Hall"}]`, row.Meetings)
	assert.Equal(t, int64(1600000000000), row.LastUpdateTime)
}

func TestNewCourseRow(t *testing.T) {
	row := NewCourseRow(scrape.Course{
		ClassID: "3500",
		Subject: "CS",
		TermID:  "202110",
		Host:    "neu.edu",
		Name:    "Object-Oriented Design",
		CRNs:    []string{"10001", "10002"},
		Prereqs: &scrape.Requisite{Type: "and", Values: []scrape.ReqValue{
			{Subject: "CS", ClassID: "2510"},
		}},
	})

	assert.Equal(t, "3500", row.ClassID)
	assert.JSONEq(t, `["10001","10002"]`, row.Crns)
	assert.JSONEq(t, `{"type":"and","values":[{"subject":"CS","classId":"2510"}]}`, row.Prereqs)
	// No requisites stores as empty, not as a JSON null.
	assert.Empty(t, row.Coreqs)
}
