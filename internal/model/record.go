package model

import (
	"fmt"
	"math"
	"strings"
)

// Column is one filterable attribute of the metadata table.
type Column string

const (
	ColGitBranch       Column = "git_branch"
	ColGitCommitID     Column = "git_commit_id"
	ColGitOwner        Column = "git_owner"
	ColGitRepo         Column = "git_repo"
	ColIngestionTime   Column = "ingestion_datetime_utc"
	ColPrimaryLanguage Column = "primary_language"
	ColResultURL       Column = "result_url"
	ColToolName        Column = "tool_name"
	ColToolVersion     Column = "tool_version"
	ColProjName        Column = "projname"
	ColDBFileSize      Column = "db_file_size"
)

// Columns lists every attribute in table order. It doubles as the allow-list
// for names that may appear in generated SQL.
var Columns = []Column{
	ColGitBranch,
	ColGitCommitID,
	ColGitOwner,
	ColGitRepo,
	ColIngestionTime,
	ColPrimaryLanguage,
	ColResultURL,
	ColToolName,
	ColToolVersion,
	ColProjName,
	ColDBFileSize,
}

// Valid reports whether c is a known metadata column.
func (c Column) Valid() bool {
	for _, k := range Columns {
		if k == c {
			return true
		}
	}
	return false
}

// IsInteger reports whether the column stores integers rather than text.
func (c Column) IsInteger() bool {
	return c == ColDBFileSize
}

// Label returns the column name title-cased for display, e.g. "Git Owner".
func (c Column) Label() string {
	parts := strings.Split(string(c), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// Record is one row of the catalog.
type Record struct {
	GitBranch            string `json:"git_branch"`
	GitCommitID          string `json:"git_commit_id"`
	GitOwner             string `json:"git_owner"`
	GitRepo              string `json:"git_repo"`
	IngestionDatetimeUTC string `json:"ingestion_datetime_utc"`
	PrimaryLanguage      string `json:"primary_language"`
	ResultURL            string `json:"result_url"`
	ToolName             string `json:"tool_name"`
	ToolVersion          string `json:"tool_version"`
	ProjName             string `json:"projname"`
	DBFileSize           int64  `json:"db_file_size"`
}

// NWO returns the "owner/repo" identity used by exports.
func (r Record) NWO() string {
	return fmt.Sprintf("%s/%s", r.GitOwner, r.GitRepo)
}

// SizeMB returns the database size in megabytes rounded to one decimal.
func (r Record) SizeMB() float64 {
	if r.DBFileSize <= 0 {
		return 0
	}
	mb := float64(r.DBFileSize) / (1024 * 1024)
	return math.Round(mb*10) / 10
}

// Value returns the textual form of the given column.
func (r Record) Value(c Column) string {
	switch c {
	case ColGitBranch:
		return r.GitBranch
	case ColGitCommitID:
		return r.GitCommitID
	case ColGitOwner:
		return r.GitOwner
	case ColGitRepo:
		return r.GitRepo
	case ColIngestionTime:
		return r.IngestionDatetimeUTC
	case ColPrimaryLanguage:
		return r.PrimaryLanguage
	case ColResultURL:
		return r.ResultURL
	case ColToolName:
		return r.ToolName
	case ColToolVersion:
		return r.ToolVersion
	case ColProjName:
		return r.ProjName
	case ColDBFileSize:
		return fmt.Sprintf("%d", r.DBFileSize)
	}
	return ""
}
