package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/openswoop/banner9/pkg/scrape"
	"google.golang.org/api/googleapi"
)

type BigQuery struct {
	ctx     context.Context
	client  *bigquery.Client
	dataset *bigquery.Dataset
	name    string
}

func NewBigQuery(projectID, datasetID string) (BigQuery, error) {
	var bq BigQuery

	// Set up BigQuery
	ctx := context.Background()
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return bq, fmt.Errorf("failed to create client: %v", err)
	}

	dataset := client.Dataset(datasetID)
	if err := dataset.Create(ctx, nil); err != nil {
		if !isDuplicateError(err) {
			return bq, fmt.Errorf("failed to create dataset: %v", err)
		}
	}

	bq = BigQuery{ctx, client, dataset, datasetID}
	return bq, nil
}

func (bq BigQuery) SaveCatalog(catalog *scrape.Catalog) error {
	terms := make([]TermRow, 0, len(catalog.Terms))
	for _, t := range catalog.Terms {
		terms = append(terms, NewTermRow(t))
	}
	subjects := make([]SubjectRow, 0, len(catalog.Subjects))
	for _, s := range catalog.Subjects {
		subjects = append(subjects, NewSubjectRow(s))
	}
	courses := make([]CourseRow, 0, len(catalog.Classes))
	for _, c := range catalog.Classes {
		courses = append(courses, NewCourseRow(c))
	}
	sections := make([]SectionRow, 0, len(catalog.Sections))
	for _, s := range catalog.Sections {
		sections = append(sections, NewSectionRow(s))
	}

	if err := bq.insert(TermRow{}, "terms", terms, "t.term_id = s.term_id AND t.host = s.host"); err != nil {
		return fmt.Errorf("failed to insert terms: %v", err)
	}
	if err := bq.insert(SubjectRow{}, "subjects", subjects, "t.code = s.code AND t.term_id = s.term_id"); err != nil {
		return fmt.Errorf("failed to insert subjects: %v", err)
	}
	if err := bq.insert(CourseRow{}, "courses", courses,
		"t.class_id = s.class_id AND t.subject = s.subject AND t.term_id = s.term_id"); err != nil {
		return fmt.Errorf("failed to insert courses: %v", err)
	}
	if err := bq.insert(SectionRow{}, "sections", sections, "t.crn = s.crn AND t.term_id = s.term_id"); err != nil {
		return fmt.Errorf("failed to insert sections: %v", err)
	}
	return nil
}

func (bq BigQuery) insert(st interface{}, tableName string, data interface{}, onClause string) error {
	// Infer the table schema
	schema, err := bigquery.InferSchema(st)
	if err != nil {
		return fmt.Errorf("failed to infer schema: %v", err)
	}

	// Get a reference to the table
	table := bq.dataset.Table(tableName)
	if err := table.Create(bq.ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
		if !isDuplicateError(err) {
			return fmt.Errorf("failed to create table: %v", err)
		}
	}

	// Create a temp table
	// Uses a different table each time: https://stackoverflow.com/a/51998193/5623874
	tempName := tableName + "_" + strconv.Itoa(int(time.Now().Unix()))
	newArrivals := bq.dataset.Table(tempName)
	if err := newArrivals.Create(bq.ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
		if !isDuplicateError(err) {
			return fmt.Errorf("failed to create arrivals table: %v", err)
		}
	}

	// Upload data
	u := newArrivals.Inserter()
	if err := u.Put(bq.ctx, data); err != nil {
		return fmt.Errorf("failed to insert rows: %v", err)
	}

	// Merge data, refreshing rows the new scrape saw again
	q := bq.client.Query(fmt.Sprintf(`
		MERGE %s.%s t
		USING %s.%s s
		ON %s
		WHEN MATCHED THEN
		  UPDATE SET %s
		WHEN NOT MATCHED THEN
		  INSERT ROW`,
		bq.name, tableName, bq.name, tempName, onClause, updateClause(schema)))
	if _, err := q.Run(bq.ctx); err != nil {
		return fmt.Errorf("failed to execute query: %v", err)
	}

	// Don't delete the temp table so we can manually audit insertions

	return nil
}

// updateClause assigns every inferred column from the arrivals side.
func updateClause(schema bigquery.Schema) string {
	clause := ""
	for i, field := range schema {
		if i > 0 {
			clause += ", "
		}
		clause += field.Name + " = s." + field.Name
	}
	return clause
}

func (bq BigQuery) Close() error {
	return bq.client.Close()
}

func isDuplicateError(err error) bool {
	if e, ok := err.(*googleapi.Error); ok {
		return e.Code == 409
	} else {
		return false
	}
}
