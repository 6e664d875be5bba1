package scrape

import (
	"encoding/json"
	"log"
	"strings"

	"golang.org/x/net/html"
)

// Requisite is a boolean expression tree over course and test-score
// requirements.
type Requisite struct {
	Type   string     `json:"type"`
	Values []ReqValue `json:"values"`
}

// ReqValue is a course leaf, a test-score leaf, or a nested group.
type ReqValue struct {
	Subject string     `json:"subject,omitempty"`
	ClassID string     `json:"classId,omitempty"`
	Test    string     `json:"test,omitempty"`
	Score   string     `json:"score,omitempty"`
	Group   *Requisite `json:"-"`
}

// MarshalJSON flattens nested groups into the tree shape downstream
// consumers expect: a group serializes as its Requisite, a leaf as its
// own fields.
func (v ReqValue) MarshalJSON() ([]byte, error) {
	if v.Group != nil {
		return json.Marshal(v.Group)
	}
	type leaf ReqValue
	return json.Marshal(leaf(v))
}

// Empty reports whether the tree constrains nothing.
func (r *Requisite) Empty() bool {
	return r == nil || len(r.Values) == 0
}

// SubjectTable maps long subject names, as Banner prints them in
// requisite tables, back to their short codes.
type SubjectTable map[string]string

// NewSubjectTable builds the lookup from the subject listings of a run.
// Names arrive HTML-escaped ("Chemistry &amp; Chemical Biology") and are
// decoded before use. The first code seen for a name wins.
func NewSubjectTable(subjects []Subject) SubjectTable {
	table := SubjectTable{}
	for _, s := range subjects {
		name := html.UnescapeString(s.Text)
		if code, ok := table[name]; ok {
			if code != s.Subject {
				log.Printf("Warning: subject name %q has more than one code: %q and %q", name, code, s.Subject)
			}
			continue
		}
		table[name] = s.Subject
	}
	return table
}

// Lookup resolves a long subject name to its code. A miss is never
// fatal; callers degrade and log.
func (t SubjectTable) Lookup(name string) (string, bool) {
	code, ok := t[name]
	return code, ok
}

// reqParser walks the keyed rows of a requisite table. The markers are
// positional: the first unnamed column carries an opening parenthesis,
// the second ("1" after uniquify) a closing one, and "and/or" sets the
// operator of the group it appears in, sticky until overridden.
type reqParser struct {
	rows     []Row
	index    int
	subjects SubjectTable
}

// ParseRequisites rebuilds the nested and/or tree a prerequisite table
// encodes row by row.
func ParseRequisites(rows []Row, subjects SubjectTable) *Requisite {
	p := &reqParser{rows: rows, subjects: subjects}
	tree := p.group()
	return &tree
}

func (p *reqParser) group() Requisite {
	op := "and"
	var values []ReqValue
	for p.index < len(p.rows) {
		row := p.rows[p.index]
		if marker := strings.TrimSpace(row["and/or"]); marker != "" {
			op = strings.ToLower(marker)
		}

		leaf, present := p.leaf(row)

		// Advance before the closing check so a row that both opens and
		// closes a group contributes correctly.
		p.index++

		if strings.TrimSpace(row[""]) != "" {
			// The row opens a group; its own leaf belongs in front of
			// the nested result.
			nested := p.group()
			if present {
				nested.Values = append([]ReqValue{leaf}, nested.Values...)
			}
			values = append(values, ReqValue{Group: &nested})
		} else if present {
			values = append(values, leaf)
		}

		if strings.TrimSpace(row["1"]) != "" {
			return Requisite{Type: op, Values: values}
		}
	}
	// The top-level group needs no explicit closer.
	return Requisite{Type: op, Values: values}
}

// leaf extracts the row's own requirement, if it carries one. A subject
// that fails to resolve counts as absent content.
func (p *reqParser) leaf(row Row) (ReqValue, bool) {
	test := strings.TrimSpace(row["test"])
	score := strings.TrimSpace(row["score"])
	if test != "" && score != "" {
		return ReqValue{Test: test, Score: score}, true
	}

	subject := strings.TrimSpace(row["subject"])
	number := strings.TrimSpace(row["coursenumber"])
	code, ok := p.subjects.Lookup(subject)
	if subject != "" && !ok {
		log.Printf("Warning: prereqs: no abbreviation for subject %q", subject)
	}
	if subject != "" && number != "" && ok {
		return ReqValue{Subject: code, ClassID: number}, true
	}
	return ReqValue{}, false
}

// ParseCorequisites folds a corequisite table into a single flat "and"
// group. Corequisites never nest in practice, but the rows come from
// the same keyed-row decode as prerequisites.
func ParseCorequisites(rows []Row, subjects SubjectTable) *Requisite {
	coreqs := &Requisite{Type: "and"}
	for _, row := range rows {
		subject := strings.TrimSpace(row["subject"])
		number := strings.TrimSpace(row["coursenumber"])
		if subject == "" || number == "" {
			continue
		}
		code, ok := subjects.Lookup(subject)
		if !ok {
			log.Printf("Warning: coreqs: no abbreviation for subject %q", subject)
			continue
		}
		coreqs.Values = append(coreqs.Values, ReqValue{Subject: code, ClassID: number})
	}
	return coreqs
}
