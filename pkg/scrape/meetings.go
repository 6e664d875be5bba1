package scrape

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/gocolly/colly/v2"
)

// maxMeetingAttempts bounds the total tries against the flaky
// getFacultyMeetingTimes endpoint: one initial request plus five
// retries.
const maxMeetingAttempts = 6

// getMeetingTimes pulls the meeting-time payload for a section. The
// endpoint has a rare chance of 302-redirecting to the login page or
// returning a mangled body, so failures retry after a randomized 1-500ms
// delay; the randomness spreads our retries out so the server gets a
// break from us. Exhausting the budget degrades the section to an empty
// meeting list, never a run failure.
func (cl *Client) getMeetingTimes(termID, crn string) []Meeting {
	url := fmt.Sprintf("%s/searchResults/getFacultyMeetingTimes?term=%s&courseReferenceNumber=%s",
		cl.BaseURL, termID, crn)

	var last *colly.Response
	for attempt := 0; attempt < maxMeetingAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(1+rand.Intn(500)) * time.Millisecond)
		}

		resp, err := get(cl.meetings, url)
		if resp != nil {
			last = resp
		}
		if resp != nil && resp.StatusCode == 200 {
			if meetings, ok := decodeMeetings(resp.Body); ok {
				return meetings
			}
		}
		if attempt == maxMeetingAttempts-1 {
			break
		}

		switch {
		case resp == nil:
			log.Printf("Warning: getFacultyMeetingTimes request failed (%v), trying again", err)
		case resp.StatusCode == 302:
			log.Println("Warning: getFacultyMeetingTimes did a spontaneous 302 redirect to the login page, trying again")
		default:
			log.Printf("Warning: getFacultyMeetingTimes resulted in an unexpected response (status %d), trying again", resp.StatusCode)
		}
	}

	body := ""
	if last != nil {
		body = string(last.Body)
	}
	log.Printf("Error: %d failed attempts to get meeting info\nurl: %s\nlast response: %s",
		maxMeetingAttempts, url, body)
	return nil
}

// decodeMeetings unpacks the payload's fmt marker array. Each entry's
// meeting-time object is carried through as-is; a body without the
// marker is a failed attempt.
func decodeMeetings(body []byte) ([]Meeting, bool) {
	var payload struct {
		Fmt []struct {
			MeetingTime Meeting `json:"meetingTime"`
		} `json:"fmt"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Fmt == nil {
		return nil, false
	}
	meetings := make([]Meeting, 0, len(payload.Fmt))
	for _, entry := range payload.Fmt {
		meetings = append(meetings, entry.MeetingTime)
	}
	return meetings, true
}
