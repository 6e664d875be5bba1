package database

import (
	"database/sql"
	"errors"
	"log"

	"github.com/go-gorp/gorp/v3"
	"github.com/mattn/go-sqlite3"
	"github.com/openswoop/banner9/pkg/scrape"
)

type Sqlite struct {
	db    *sql.DB
	dbmap *gorp.DbMap
}

func NewSqlite(file string) Sqlite {
	sqlite := Sqlite{}

	// Initialize the database connection
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		log.Panic("Unable to connect to database: ", err)
	}
	sqlite.db = db

	// Initialize the database mapping, creating the tables if it's our first run
	dbmap := &gorp.DbMap{Db: db, Dialect: gorp.SqliteDialect{}}
	// SetUniqueTogether wants the column names from the db tags, not the
	// Go field names: gorp writes them verbatim into the DDL.
	dbmap.AddTableWithName(TermRow{}, "terms").SetUniqueTogether("term_id", "host")
	dbmap.AddTableWithName(SubjectRow{}, "subjects").SetUniqueTogether("code", "term_id")
	dbmap.AddTableWithName(CourseRow{}, "courses").SetUniqueTogether("class_id", "subject", "term_id")
	dbmap.AddTableWithName(SectionRow{}, "sections").SetUniqueTogether("crn", "term_id")
	err = dbmap.CreateTablesIfNotExists()
	if err != nil {
		log.Panic("Unable to create tables: ", err)
	}
	sqlite.dbmap = dbmap

	return sqlite
}

func (s Sqlite) SaveCatalog(catalog *scrape.Catalog) error {
	var rows []interface{}
	for _, t := range catalog.Terms {
		row := NewTermRow(t)
		rows = append(rows, &row)
	}
	for _, sub := range catalog.Subjects {
		row := NewSubjectRow(sub)
		rows = append(rows, &row)
	}
	for _, c := range catalog.Classes {
		row := NewCourseRow(c)
		rows = append(rows, &row)
	}
	for _, sec := range catalog.Sections {
		row := NewSectionRow(sec)
		rows = append(rows, &row)
	}
	return s.save(rows)
}

func (s Sqlite) save(rows []interface{}) error {
	tx, err := s.dbmap.Begin()
	if err != nil {
		return err
	}
	for _, row := range rows {
		err := tx.Insert(row)
		var sqliteError sqlite3.Error
		if errors.As(err, &sqliteError) {
			if errors.Is(sqliteError.ExtendedCode, sqlite3.ErrConstraintUnique) {
				continue // silently ignore duplicates
			}
		}
	}
	return tx.Commit()
}

func (s Sqlite) Close() error {
	return s.db.Close()
}
