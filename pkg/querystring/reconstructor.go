package querystring

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	searchKey  = "q"
	filtersKey = "filters"

	subkeyField  = "field"
	subkeyType   = "type"
	subkeyValues = "values"
)

var bracketPattern = regexp.MustCompile(`\[([0-9A-Za-z_\-]+)\]`)

// group accumulates the tokens of one filters[<index>] cluster.
type group struct {
	field  *string
	typ    *string
	values map[string]string
}

// Reconstruct rebuilds the search term and filter map from tokens.
//
// Tokens of one group may arrive in any order. Groups that never receive a
// non-empty field are dropped. Values are ordered by their index, not by
// arrival. When a group receives several field tokens the last one wins.
func Reconstruct(tokens []Token) ParsedQuery {
	var out ParsedQuery
	groups := make(map[string]*group)

	for _, tok := range tokens {
		switch {
		case tok.Key == searchKey:
			v := tok.Value
			out.SearchQuery = &v
		case strings.Contains(tok.Key, filtersKey):
			accumulate(groups, tok)
		}
	}

	if len(groups) == 0 {
		return out
	}

	indices := make([]string, 0, len(groups))
	for idx := range groups {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indexLess(indices[i], indices[j]) })

	for _, idx := range indices {
		g := groups[idx]
		if g.field == nil || *g.field == "" {
			continue
		}
		if out.Filters == nil {
			out.Filters = make(map[string]Filter)
		}
		f, seen := out.Filters[*g.field]
		if !seen {
			f.Values = []string{}
		}
		f.Values = append(f.Values, g.orderedValues()...)
		if g.typ != nil {
			f.Type = g.typ
		}
		out.Filters[*g.field] = f
	}
	return out
}

func accumulate(groups map[string]*group, tok Token) {
	matches := bracketPattern.FindAllStringSubmatch(tok.Key, -1)
	if len(matches) < 2 {
		return
	}
	idx, subkey := matches[0][1], matches[1][1]

	var apply func(g *group)
	switch subkey {
	case subkeyField:
		if len(matches) != 2 {
			return
		}
		v := tok.Value
		apply = func(g *group) { g.field = &v }
	case subkeyType:
		if len(matches) != 2 {
			return
		}
		v := tok.Value
		apply = func(g *group) { g.typ = &v }
	case subkeyValues:
		if len(matches) != 3 {
			return
		}
		pos := matches[2][1]
		apply = func(g *group) { g.values[pos] = tok.Value }
	default:
		return
	}

	g, ok := groups[idx]
	if !ok {
		g = &group{values: make(map[string]string)}
		groups[idx] = g
	}
	apply(g)
}

func (g *group) orderedValues() []string {
	positions := make([]string, 0, len(g.values))
	for pos := range g.values {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool { return indexLess(positions[i], positions[j]) })

	values := make([]string, 0, len(positions))
	for _, pos := range positions {
		values = append(values, g.values[pos])
	}
	return values
}

// indexLess orders bracket indices: numeric ones by value and ahead of
// non-numeric ones, which compare lexically.
func indexLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
