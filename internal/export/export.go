// Package export renders a result set as the selection documents consumed by
// the MRVA tooling.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/altinukshini/hepc-tui/internal/model"
)

// ListName names the repository list in both document formats.
const ListName = "mirva-list"

// ErrEmptyResultSet is returned when there is nothing to export.
var ErrEmptyResultSet = errors.New("no databases selected; refine the filters before exporting")

// Format selects the document envelope.
type Format string

const (
	// FormatList is the bare {"mirva-list": [...]} document.
	FormatList Format = "a"
	// FormatGHMRVA is the gh-mrva / VS Code database selection document.
	FormatGHMRVA Format = "b"
)

// Name is the format's descriptive name.
func (f Format) Name() string {
	switch f {
	case FormatList:
		return ListName
	case FormatGHMRVA:
		return "gh-mrva"
	}
	return string(f)
}

// ParseFormat accepts "a", "b" and the descriptive aliases used on the
// command line.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "list", "mirva-list":
		return FormatList, nil
	case "b", "gh-mrva", "ghmrva":
		return FormatGHMRVA, nil
	}
	return "", fmt.Errorf("unknown export format %q (want a or b)", s)
}

type listDocument struct {
	List []string `json:"mirva-list"`
}

type ghmrvaDocument struct {
	Version   int       `json:"version"`
	Databases databases `json:"databases"`
	Selected  selected  `json:"selected"`
}

type databases struct {
	VariantAnalysis variantAnalysis `json:"variantAnalysis"`
}

type variantAnalysis struct {
	RepositoryLists []repositoryList `json:"repositoryLists"`
	Owners          []string         `json:"owners"`
	Repositories    []string         `json:"repositories"`
}

type repositoryList struct {
	Name         string   `json:"name"`
	Repositories []string `json:"repositories"`
}

type selected struct {
	Kind     string `json:"kind"`
	ListName string `json:"listName"`
}

// Repositories returns the unique owner/repo identities of records in
// ascending order.
func Repositories(records []model.Record) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0, len(records))
	for _, r := range records {
		nwo := r.NWO()
		if _, ok := seen[nwo]; ok {
			continue
		}
		seen[nwo] = struct{}{}
		out = append(out, nwo)
	}
	sort.Strings(out)
	return out
}

// Render builds the document for records in the requested format.
func Render(f Format, records []model.Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrEmptyResultSet
	}
	repos := Repositories(records)

	var doc any
	switch f {
	case FormatList:
		doc = listDocument{List: repos}
	case FormatGHMRVA:
		doc = ghmrvaDocument{
			Version: 1,
			Databases: databases{VariantAnalysis: variantAnalysis{
				RepositoryLists: []repositoryList{{Name: ListName, Repositories: repos}},
				Owners:          []string{},
				Repositories:    []string{},
			}},
			Selected: selected{Kind: "variantAnalysisUserDefinedList", ListName: ListName},
		}
	default:
		return nil, fmt.Errorf("unknown export format %q", f)
	}
	return encode(doc)
}

func encode(doc any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
