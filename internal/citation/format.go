// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citation renders normalized sources as formatted citation strings
// (APA, MLA, Chicago, BibTeX) and as CSL-YAML. Output depends only on the
// input sources, so formatting the same list twice yields identical strings.
package citation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/research-orchestrator/pkg/types"
)

// Format renders each source in style, preserving order.
func Format(style types.CitationStyle, sources []types.Source) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = formatOne(style, s)
	}
	return out
}

// FormatAll renders sources in every requested style. Duplicate styles are
// rendered once.
func FormatAll(sources []types.Source, styles ...types.CitationStyle) map[types.CitationStyle][]string {
	out := make(map[types.CitationStyle][]string, len(styles))
	for _, st := range styles {
		if _, done := out[st]; done {
			continue
		}
		out[st] = Format(st, sources)
	}
	return out
}

func formatOne(style types.CitationStyle, s types.Source) string {
	switch style {
	case types.StyleMLA:
		return mla(s)
	case types.StyleChicago:
		return chicago(s)
	case types.StyleBibTeX:
		return bibtex(s)
	default:
		return apa(s)
	}
}

// apa: Authors (Year). Title. Journal. https://doi.org/DOI
func apa(s types.Source) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d). %s.", joinAuthors(s.Authors, "&", false), s.Year, title(s))
	if j := deref(s.Journal); j != "" {
		fmt.Fprintf(&b, " %s.", j)
	}
	appendLink(&b, s)
	return b.String()
}

// mla: Authors. "Title." Journal, Year.
func mla(s types.Source) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s. \"%s.\"", strings.TrimSuffix(joinAuthors(s.Authors, "and", true), "."), title(s))
	if j := deref(s.Journal); j != "" {
		fmt.Fprintf(&b, " %s, %d.", j, s.Year)
	} else {
		fmt.Fprintf(&b, " %d.", s.Year)
	}
	appendLink(&b, s)
	return b.String()
}

// chicago: Authors. "Title." Journal (Year).
func chicago(s types.Source) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s. \"%s.\"", strings.TrimSuffix(joinAuthors(s.Authors, "and", false), "."), title(s))
	if j := deref(s.Journal); j != "" {
		fmt.Fprintf(&b, " %s (%d).", j, s.Year)
	} else {
		fmt.Fprintf(&b, " (%d).", s.Year)
	}
	appendLink(&b, s)
	return b.String()
}

func bibtex(s types.Source) string {
	var b strings.Builder
	fmt.Fprintf(&b, "@article{%s,\n", BibKey(s))
	fmt.Fprintf(&b, "  author = {%s},\n", strings.Join(s.Authors, " and "))
	fmt.Fprintf(&b, "  title = {%s},\n", title(s))
	if j := deref(s.Journal); j != "" {
		fmt.Fprintf(&b, "  journal = {%s},\n", j)
	}
	fmt.Fprintf(&b, "  year = {%d}", s.Year)
	if d := deref(s.DOI); d != "" {
		fmt.Fprintf(&b, ",\n  doi = {%s}", d)
	}
	if u := deref(s.URL); u != "" {
		fmt.Fprintf(&b, ",\n  url = {%s}", u)
	}
	b.WriteString("\n}")
	return b.String()
}

// BibKey derives a citation key: first author's family name, year, and the
// first significant title word, e.g. "smith2024artificial".
func BibKey(s types.Source) string {
	family := "anon"
	if len(s.Authors) > 0 {
		if n := ParseName(s.Authors[0]); n.Family != "" {
			family = n.Family
		} else if n.Literal != "" {
			family = n.Literal
		}
	}
	word := ""
	for _, w := range strings.Fields(s.Title) {
		w = alnum(w)
		if len(w) > 3 {
			word = w
			break
		}
	}
	return alnum(family) + strconv.Itoa(s.Year) + word
}

// joinAuthors lists names APA-style ("A, B, & C"). With etAl set, three or
// more authors collapse to "A, et al.".
func joinAuthors(authors []string, conj string, etAl bool) string {
	switch {
	case len(authors) == 0:
		return types.UnknownAuthor
	case len(authors) == 1:
		return authors[0]
	case etAl && len(authors) >= 3:
		return authors[0] + ", et al."
	case len(authors) == 2:
		return authors[0] + ", " + conj + " " + authors[1]
	}
	return strings.Join(authors[:len(authors)-1], ", ") + ", " + conj + " " + authors[len(authors)-1]
}

func appendLink(b *strings.Builder, s types.Source) {
	if d := deref(s.DOI); d != "" {
		fmt.Fprintf(b, " https://doi.org/%s", d)
	} else if u := deref(s.URL); u != "" {
		fmt.Fprintf(b, " %s", u)
	}
}

func title(s types.Source) string {
	return strings.TrimRight(strings.TrimSpace(s.Title), ".")
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func alnum(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
