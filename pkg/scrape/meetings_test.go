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

func TestGetMeetingTimes(t *testing.T) {
	var requests int32
	mux := http.NewServeMux()
	mux.HandleFunc("/searchResults/getFacultyMeetingTimes", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		assert.Equal(t, "202110", r.URL.Query().Get("term"))
		assert.Equal(t, "12345", r.URL.Query().Get("courseReferenceNumber"))
		fmt.Fprint(w, `{"fmt":[
			{"meetingTime":{"beginTime":"0915","building":"Ryder Hall"}},
			{"meetingTime":{"beginTime":"1330","building":"Hurtig Hall"}}
		]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cl := NewClient(colly.NewCollector(), server.URL)
	meetings := cl.getMeetingTimes("202110", "12345")

	require.Len(t, meetings, 2)
	assert.Equal(t, "0915", meetings[0]["beginTime"])
	assert.Equal(t, "Hurtig Hall", meetings[1]["building"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestGetMeetingTimesRetriesThenGivesUp(t *testing.T) {
	var requests int32
	mux := http.NewServeMux()
	mux.HandleFunc("/searchResults/getFacultyMeetingTimes", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		// A 200 whose body is missing the marker array.
		fmt.Fprint(w, `{"error":"something went sideways"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cl := NewClient(colly.NewCollector(), server.URL)
	meetings := cl.getMeetingTimes("202110", "12345")

	assert.Nil(t, meetings)
	assert.Equal(t, int32(maxMeetingAttempts), atomic.LoadInt32(&requests))
}

func TestGetMeetingTimesRecoversMidRun(t *testing.T) {
	var requests int32
	mux := http.NewServeMux()
	mux.HandleFunc("/searchResults/getFacultyMeetingTimes", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"fmt":[{"meetingTime":{"building":"Snell Library"}}]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cl := NewClient(colly.NewCollector(), server.URL)
	meetings := cl.getMeetingTimes("202110", "12345")

	require.Len(t, meetings, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
}

func TestDecodeMeetings(t *testing.T) {
	meetings, ok := decodeMeetings([]byte(`{"fmt":[{"meetingTime":{"room":"155"}}]}`))
	assert.True(t, ok)
	assert.Len(t, meetings, 1)

	meetings, ok = decodeMeetings([]byte(`{"fmt":[]}`))
	assert.True(t, ok)
	assert.Empty(t, meetings)

	_, ok = decodeMeetings([]byte(`{"unrelated":true}`))
	assert.False(t, ok)

	_, ok = decodeMeetings([]byte(`<html>login page</html>`))
	assert.False(t, ok)
}
