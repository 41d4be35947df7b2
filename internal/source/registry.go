// Package source acquires the raw text of a translation: from the network,
// from a local directory, or from the SQLite download store.
package source

import (
	"sort"
	"strings"

	verrors "github.com/FocuswithJustin/versemem/core/errors"
)

// DefaultBaseURL serves <code>.txt for every default translation.
const DefaultBaseURL = "https://raw.githubusercontent.com/ChefTim0/bible4u/refs/heads/main"

// Entry describes one known translation.
type Entry struct {
	ID       string `json:"id"`
	Language string `json:"language"`
	URL      string `json:"url"`
}

// DefaultSources lists the built-in translation codes with their language.
var DefaultSources = []Entry{
	{ID: "ITADIO", Language: "it"},
	{ID: "CEI", Language: "it"},
	{ID: "RVA", Language: "es"},
	{ID: "spavbl", Language: "es"},
	{ID: "ELB71", Language: "de"},
	{ID: "ELB", Language: "de"},
	{ID: "LUTH1545", Language: "de"},
	{ID: "deu1912", Language: "de"},
	{ID: "deutkw", Language: "de"},
	{ID: "VULGATE", Language: "la"},
	{ID: "FOB", Language: "fr"},
	{ID: "LSG", Language: "fr"},
	{ID: "KJV", Language: "en"},
	{ID: "TR1894", Language: "grc"},
	{ID: "TR1550", Language: "grc"},
	{ID: "WHNU", Language: "grc"},
	{ID: "grm", Language: "grc"},
	{ID: "WLC", Language: "he"},
	{ID: "heb", Language: "he"},
}

// Registry maps translation codes to download URLs. Lookups ignore case.
type Registry struct {
	entries map[string]Entry
	order   []string
}

// NewRegistry seeds the default translations at baseURL and applies
// overrides (code -> URL), which may also add codes.
func NewRegistry(baseURL string, overrides map[string]string) *Registry {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	r := &Registry{entries: make(map[string]Entry)}
	for _, e := range DefaultSources {
		e.URL = baseURL + "/" + e.ID + ".txt"
		r.add(e)
	}

	ids := make([]string, 0, len(overrides))
	for id := range overrides {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if existing, ok := r.entries[strings.ToLower(id)]; ok {
			existing.URL = overrides[id]
			r.entries[strings.ToLower(id)] = existing
			continue
		}
		r.add(Entry{ID: id, URL: overrides[id]})
	}
	return r
}

func (r *Registry) add(e Entry) {
	k := strings.ToLower(e.ID)
	if _, ok := r.entries[k]; !ok {
		r.order = append(r.order, k)
	}
	r.entries[k] = e
}

// Lookup returns the entry for id.
func (r *Registry) Lookup(id string) (Entry, bool) {
	e, ok := r.entries[strings.ToLower(id)]
	return e, ok
}

// URL returns the download URL for id, or a NotFoundError.
func (r *Registry) URL(id string) (string, error) {
	e, ok := r.Lookup(id)
	if !ok {
		return "", verrors.NewNotFound("source", id)
	}
	return e.URL, nil
}

// Entries returns all entries, defaults first in their built-in order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.entries[k])
	}
	return out
}
