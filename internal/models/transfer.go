package models

import "time"

const ExportVersion = "1.0"

// ExportFile is the JSON dump offered by GET /data/export. Entity slices
// are omitted when the caller filtered them out.
type ExportFile struct {
	ExportDate time.Time      `json:"exportDate"`
	Version    string         `json:"version"`
	Metadata   ExportMetadata `json:"metadata"`
	Users      []User         `json:"users,omitempty"`
	Movies     []Movie        `json:"movies,omitempty"`
	Rankings   []Ranking      `json:"rankings,omitempty"`
}

type ExportMetadata struct {
	Users    int  `json:"users"`
	Movies   int  `json:"movies"`
	Rankings int  `json:"rankings"`
	Year     *int `json:"year,omitempty"`
}

// ExportFilter narrows an export. Year filters movies by watched year and
// rankings by ranking year. Entities defaults to all three when empty.
type ExportFilter struct {
	Year     *int
	Entities []string
}

type ImportRequest struct {
	Overwrite bool      `json:"overwrite"`
	Users     []User    `json:"users"`
	Movies    []Movie   `json:"movies"`
	Rankings  []Ranking `json:"rankings"`
}

// ImportTally counts the per-record outcomes of one entity's import pass.
type ImportTally struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

type ImportReport struct {
	Users    ImportTally `json:"users"`
	Movies   ImportTally `json:"movies"`
	Rankings ImportTally `json:"rankings"`
}

// DataStats is the record-count summary behind GET /data/stats.
type DataStats struct {
	Users    int `json:"users"`
	Movies   int `json:"movies"`
	Rankings int `json:"rankings"`
}
