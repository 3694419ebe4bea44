package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
	"github.com/AdvisorySG/mentorship-analytics/pkg/querystring"
)

func run(t *testing.T, cmd interface {
	SetArgs([]string)
	Execute() error
}, args ...string) {
	t.Helper()
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
}

func TestParseCmd_Arguments(t *testing.T) {
	cmd := NewParseCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)

	run(t, cmd,
		"q=vincent&filters[0][field]=industries&filters[0][values][0]=Banking and Finance&filters[0][type]=all",
		"size=n_80_n",
	)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var first querystring.ParsedQuery
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NotNil(t, first.SearchQuery)
	assert.Equal(t, "vincent", *first.SearchQuery)
	assert.Equal(t, []string{"Banking and Finance"}, first.Values("industries"))
	assert.JSONEq(t, `{}`, lines[1])
}

func TestParseCmd_StdinCanonical(t *testing.T) {
	cmd := NewParseCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetIn(strings.NewReader("filters[1][values][0]=Deutsche Bank&filters[1][field]=organisation\n\n"))

	run(t, cmd, "--canonical")

	canonical := strings.TrimSpace(out.String())
	assert.Equal(t, []string{"Deutsche Bank"}, querystring.Parse(canonical).Values("organisation"))
}

func TestParseCmd_Tokens(t *testing.T) {
	cmd := NewParseCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)

	run(t, cmd, "--tokens", "q=a%20b&size=n_80_n")

	assert.Equal(t, "q\ta b\nsize\tn_80_n\n", out.String())
}

func TestNormalizeCmd(t *testing.T) {
	cmd := NewNormalizeCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetIn(strings.NewReader(
		`{"event_id":"e1","visit_id":"v1","url_path":"/mentors","url_query":"q=law&filters[0][field]=school&filters[0][values][0]=NUS","created_at":"2024-03-01T09:00:00Z","event_type":1}` + "\n" +
			`{"event_id":"e2","visit_id":"v1","url_path":"/mentors","created_at":"2024-03-01T09:01:00Z","event_type":1}` + "\n",
	))

	run(t, cmd, "--fields", "school,industries")

	var got []entities.NormalizedEvent
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		var ev entities.NormalizedEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		got = append(got, ev)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].EventID)
	require.NotNil(t, got[0].SearchQuery)
	assert.Equal(t, "law", *got[0].SearchQuery)
	assert.Equal(t, []string{"NUS"}, got[0].Filters["school"])
	assert.Empty(t, got[0].Filters["industries"])
	assert.Nil(t, got[1].SearchQuery)
}

func TestNormalizeCmd_Errors(t *testing.T) {
	t.Run("bad field", func(t *testing.T) {
		cmd := NewNormalizeCmd()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetErr(new(bytes.Buffer))
		cmd.SetIn(strings.NewReader(""))
		cmd.SetArgs([]string{"--fields", "school;drop"})
		assert.Error(t, cmd.Execute())
	})

	t.Run("bad json", func(t *testing.T) {
		cmd := NewNormalizeCmd()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetErr(new(bytes.Buffer))
		cmd.SetIn(strings.NewReader("{not json}\n"))
		cmd.SetArgs([]string{})
		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 1")
	})
}
