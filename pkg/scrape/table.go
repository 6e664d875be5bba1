package scrape

import (
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Row is one table row keyed by the normalized header cells.
type Row map[string]string

var whitespace = regexp.MustCompile(`\s`)

// uniquify appends the smallest positive integer that makes key unique
// within keys.
func uniquify(keys []string, key string) string {
	if !contains(keys, key) {
		return key
	}
	for n := 1; ; n++ {
		if candidate := key + strconv.Itoa(n); !contains(keys, candidate) {
			return candidate
		}
	}
}

func contains(set []string, value string) bool {
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}

// ParseTable decodes a table using its first row as keys: each header
// cell's text trimmed, lower-cased, and stripped of whitespace, with
// collisions uniquified. Only th/td cells count. Anything that is not
// exactly one table decodes to nothing.
func ParseTable(table *goquery.Selection) []Row {
	if table.Length() != 1 || !table.Is("table") {
		return nil
	}

	rows := table.Find("tr")
	if rows.Length() == 0 {
		log.Println("Error: table has zero rows")
		return nil
	}

	var keys []string
	rows.First().ChildrenFiltered("th,td").Each(func(_ int, cell *goquery.Selection) {
		key := whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(cell.Text())), "")
		keys = append(keys, uniquify(keys, key))
	})

	var decoded []Row
	rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("th,td")
		if cells.Length() > len(keys) {
			log.Println("Warning: table row is longer than its header:", strings.TrimSpace(row.Text()))
		}
		r := Row{}
		cells.Each(func(i int, cell *goquery.Selection) {
			if i < len(keys) {
				r[keys[i]] = cell.Text()
			} else {
				// Overflow cells keep their data under a positional key.
				r[uniquify(keys, strconv.Itoa(i))] = cell.Text()
			}
		})
		decoded = append(decoded, r)
	})
	return decoded
}
