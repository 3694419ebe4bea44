// Package querystring rebuilds faceted-search state from the query strings
// produced by the mentor search UI, e.g.
//
//	q=vincent&filters[0][field]=industries&filters[0][values][0]=Banking&filters[0][type]=all
//
// Parsing never fails. Fragments that cannot be understood are dropped.
package querystring

// Token is one key/value pair taken from a single '&'-delimited fragment.
// Both halves are already percent- and HTML-decoded.
type Token struct {
	Key   string
	Value string
}

// Filter is the reconstructed selection for one facet.
type Filter struct {
	// Type is opaque metadata from the UI ("all", "any"); it never affects Values.
	Type   *string  `json:"type,omitempty"`
	Values []string `json:"values"`
}

// ParsedQuery is the logical search state encoded by a query string.
type ParsedQuery struct {
	SearchQuery *string           `json:"search_query,omitempty"`
	Filters     map[string]Filter `json:"filters,omitempty"`
}

// IsEmpty reports whether the query carried neither a search term nor filters.
func (p ParsedQuery) IsEmpty() bool {
	return p.SearchQuery == nil && len(p.Filters) == 0
}

// Values returns the selected values for field, or nil when the field is absent.
func (p ParsedQuery) Values(field string) []string {
	f, ok := p.Filters[field]
	if !ok {
		return nil
	}
	return f.Values
}

// Parse tokenizes and reconstructs a raw query string. A leading URL
// (anything up to the first '?') is accepted and ignored.
func Parse(raw string) ParsedQuery {
	return Reconstruct(Tokenize(raw))
}
