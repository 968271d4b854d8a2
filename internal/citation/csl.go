// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citation

import (
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-orchestrator/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes sources as a CSL-YAML list to w.
func FormatCSL(sources []types.Source, w io.Writer) error {
	items := make([]CSLItem, len(sources))
	for i, s := range sources {
		items[i] = ToCSLItem(s)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// ToCSLItem converts a Source to a CSLItem keyed by its BibTeX key.
func ToCSLItem(s types.Source) CSLItem {
	item := CSLItem{
		ID:             BibKey(s),
		Type:           "article-journal",
		Title:          s.Title,
		ContainerTitle: deref(s.Journal),
		Abstract:       deref(s.Abstract),
		DOI:            deref(s.DOI),
		URL:            deref(s.URL),
	}
	for _, a := range s.Authors {
		item.Author = append(item.Author, ParseName(a))
	}
	if s.Year > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{s.Year}}}
	}
	return item
}

// ParseName splits an author string into CSL family/given parts. It accepts
// "Family, Given" and "Given Family"; single tokens and the placeholder
// author use the literal field.
func ParseName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	if name == types.UnknownAuthor {
		return CSLName{Literal: name}
	}
	if family, given, ok := strings.Cut(name, ","); ok {
		return CSLName{
			Family: strings.TrimSpace(family),
			Given:  strings.TrimSpace(given),
		}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
