package querystring

import (
	"html"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Encode serializes p back into the query-string shape the search UI emits.
// Fields are written in name order, one group per field, so that
// Parse(Encode(p)) reproduces p.
func Encode(p ParsedQuery) string {
	var parts []string
	if p.SearchQuery != nil {
		parts = append(parts, searchKey+"="+escape(*p.SearchQuery))
	}

	fields := make([]string, 0, len(p.Filters))
	for field := range p.Filters {
		if field == "" {
			continue
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for i, field := range fields {
		f := p.Filters[field]
		prefix := filtersKey + "[" + strconv.Itoa(i) + "]"
		parts = append(parts, prefix+"["+subkeyField+"]="+escape(field))
		for j, v := range f.Values {
			parts = append(parts, prefix+"["+subkeyValues+"]["+strconv.Itoa(j)+"]="+escape(v))
		}
		if f.Type != nil {
			parts = append(parts, prefix+"["+subkeyType+"]="+escape(*f.Type))
		}
	}
	return strings.Join(parts, "&")
}

func escape(s string) string {
	return url.QueryEscape(html.EscapeString(s))
}
