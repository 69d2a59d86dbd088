package store

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff describes how the URL list changed between two captures.
type Diff struct {
	From      string   `json:"from,omitempty"`
	To        string   `json:"to,omitempty"`
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Unchanged []string `json:"unchanged"`
}

// DiffURLs runs a line diff over the two lists. A URL that only moved is
// reported as unchanged, not as removed and added.
func DiffURLs(from, to []string) *Diff {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(joinLines(from), joinLines(to))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	d := &Diff{Added: []string{}, Removed: []string{}, Unchanged: []string{}}
	var inserted, deleted []string
	for _, df := range diffs {
		for _, line := range splitLines(df.Text) {
			switch df.Type {
			case diffmatchpatch.DiffInsert:
				inserted = append(inserted, line)
			case diffmatchpatch.DiffDelete:
				deleted = append(deleted, line)
			case diffmatchpatch.DiffEqual:
				d.Unchanged = append(d.Unchanged, line)
			}
		}
	}

	inFrom := toSet(from)
	inTo := toSet(to)
	for _, u := range inserted {
		if _, moved := inFrom[u]; moved {
			continue
		}
		d.Added = append(d.Added, u)
	}
	for _, u := range deleted {
		if _, moved := inTo[u]; moved {
			d.Unchanged = append(d.Unchanged, u)
			continue
		}
		d.Removed = append(d.Removed, u)
	}
	return d
}

func joinLines(urls []string) string {
	if len(urls) == 0 {
		return ""
	}
	return strings.Join(urls, "\n") + "\n"
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func toSet(urls []string) map[string]struct{} {
	m := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		m[u] = struct{}{}
	}
	return m
}
