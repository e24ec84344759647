package extract

import (
	"errors"
	"hoyocodes-backend/internal/codes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func readFixture(t testing.TB, name string) []byte {
	t.Helper()
	content, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return content
}

func raw(source codes.Source, pairs ...[2]string) []codes.RawCode {
	out := make([]codes.RawCode, len(pairs))
	for i, p := range pairs {
		out[i] = codes.RawCode{Source: source, Code: p[0], Rewards: p[1]}
	}
	return out
}

func TestExtractFixtures(t *testing.T) {
	testCases := []struct {
		source   codes.Source
		fixture  string
		expected []codes.RawCode
	}{
		{
			source:  codes.SourceGamesRadar,
			fixture: "gamesradar.html",
			expected: raw(
				codes.SourceGamesRadar,
				[2]string{"GENSHINGIFT", "50 Primogems and three Hero's Wit"},
				[2]string{"LUCKYDAY", "60 Primogems"},
				[2]string{"MORAFORALL", ""},
				[2]string{"LIVESTREAM53", "100 Primogems"},
			),
		},
		{
			source:  codes.SourcePocketTactics,
			fixture: "pockettactics.html",
			expected: raw(
				codes.SourcePocketTactics,
				[2]string{"HI3CRYSTALS", "60 crystals"},
				[2]string{"ELYSIAN2024", "Asterite x10"},
			),
		},
		{
			source:  codes.SourceGameRant,
			fixture: "gamerant.html",
			expected: raw(
				codes.SourceGameRant,
				[2]string{"TOTGIFT1", "Stamina x60"},
				[2]string{"TOTGIFT2", ""},
				[2]string{"TOTGIFT3", "Gold x2000"},
			),
		},
		{
			source:  codes.SourcePrydwen,
			fixture: "prydwen.html",
			expected: raw(
				codes.SourcePrydwen,
				[2]string{"STARRAILGIFT", "50 Stellar Jade, 2 Traveler's Guide"},
				[2]string{"HSRVER30", ""},
			),
		},
		{
			source:  codes.SourceGIFandom,
			fixture: "gi_fandom.wiki",
			expected: raw(
				codes.SourceGIFandom,
				[2]string{"GENSHINGIFT", "Primogem x50, Hero's Wit x3"},
				[2]string{"LUCKYSTAR", "Primos and Mora"},
			),
		},
		{
			source:  codes.SourceHoyolab,
			fixture: "hoyolab.json",
			expected: raw(
				codes.SourceHoyolab,
				[2]string{"HOYOGIFT", "x60, x5"},
				[2]string{"NOICONS", ""},
			),
		},
	}

	for _, test := range testCases {
		t.Run(string(test.source), func(t *testing.T) {
			result, err := Extract(test.source, readFixture(t, test.fixture), DefaultOptions())
			require.NoError(t, err)
			if diff := cmp.Diff(test.expected, result); diff != "" {
				t.Fatal("unexpected codes (-want +got)\n", diff)
			}
		})
	}
}

func TestStrategyOfEverySource(t *testing.T) {
	for _, source := range codes.Sources {
		_, err := StrategyOf(source)
		require.NoError(t, err, source)
	}
	_, err := StrategyOf(codes.Source("nowhere"))
	require.Error(t, err)
}

func TestExtractStructureChanged(t *testing.T) {
	testCases := []struct {
		source  codes.Source
		content string
	}{
		{codes.SourceGamesRadar, `<html><body><div id="other"></div></body></html>`},
		{codes.SourceGamesRadar, `<div id="article-body"><h2>Something else</h2><ul><li><b>X</b></li></ul></div>`},
		{codes.SourcePocketTactics, `<div class="entry-content"><p>no list</p></div>`},
		{codes.SourceGameRant, `<p>no table</p>`},
		{codes.SourcePrydwen, `<div class="other"></div>`},
		{codes.SourceHSRFandom, `just some text {{Stub}}`},
		{codes.SourceHoyolab, `{not json`},
		{codes.SourceHoyolab, `{"retcode": -1, "message": "bad"}`},
	}

	for _, test := range testCases {
		_, err := Extract(test.source, []byte(test.content), DefaultOptions())
		var extractErr *ExtractionError
		require.True(t, errors.As(err, &extractErr), "%s: %v", test.source, err)
		require.Equal(t, test.source, extractErr.Source)
	}
}

func TestExtractEmptyIsNotAnError(t *testing.T) {
	result, err := Extract(
		codes.SourceGameRant,
		[]byte(`<table><tr><th>Code</th><th>Reward</th></tr></table>`),
		DefaultOptions(),
	)
	require.NoError(t, err)
	require.Empty(t, result)
}

func TestListHeadingFilter(t *testing.T) {
	content := `<div id="article-body">
<ul><li><strong>BEFOREHEADING</strong> - ignored</li></ul>
<h2>Honkai Star Rail codes</h2>
<ul>
  <li><strong>STARRAILGIFT</strong> - Stellar Jade
    <ul><li><strong>NESTED</strong> - ignored</li></ul>
  </li>
</ul>
<h2>How to redeem</h2>
<ul><li><strong>STEPONE</strong> - ignored</li></ul>
</div>`

	result, err := Extract(codes.SourceGamesRadar, []byte(content), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, "STARRAILGIFT", result[0].Code)
	require.Equal(t, "Stellar Jade NESTED - ignored", result[0].Rewards)
}

func TestWikiServerExclusion(t *testing.T) {
	content := readFixture(t, "gi_fandom.wiki")

	result, err := Extract(codes.SourceGIFandom, content, Options{})
	require.NoError(t, err)
	found := map[string]bool{}
	for _, r := range result {
		found[r.Code] = true
	}
	require.True(t, found["CNONLY2024"])
	require.False(t, found["OLDGIFT"])
	require.False(t, found["DISCUSSION"])

	result, err = Extract(codes.SourceGIFandom, content, Options{ExcludedServers: []string{"cn", "na"}})
	require.NoError(t, err)
	require.Equal(t, raw(codes.SourceGIFandom, [2]string{"GENSHINGIFT", "Primogem x50, Hero's Wit x3"}), result)
}

func TestWikiActiveRegion(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		expected []pair
	}{
		{
			name:     "rows before any marker are inactive",
			content:  "{{Code Row|EARLY}}\n<!--ACTIVE-->\n{{Code Row|LATE|Mora}}",
			expected: []pair{{code: "LATE", rewards: "Mora"}},
		},
		{
			name:     "region can reopen",
			content:  "<!--Active codes-->{{Code Row|A}}<!--Expired codes-->{{Code Row|B}}<!--active again-->{{Code Row|C}}",
			expected: []pair{{code: "A"}, {code: "C"}},
		},
		{
			name:     "unrelated comments keep state",
			content:  "<!--ACTIVE-->{{Code Row|A}}<!-- sorted by date -->{{Code Row|B}}",
			expected: []pair{{code: "A"}, {code: "B"}},
		},
		{
			name:     "named parameters",
			content:  "<!--ACTIVE-->{{code row| Code = [[NAMED]] | Items = {{Item List|Primogem*60;Mora*10000}} }}",
			expected: []pair{{code: "NAMED", rewards: "Primogem x60, Mora x10000"}},
		},
		{
			name:     "only expired",
			content:  "<!--EXPIRED-->{{Code Row|OLD}}",
			expected: nil,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			result, err := extractWiki(test.content, fandomRows)
			require.NoError(t, err)
			if diff := cmp.Diff(test.expected, result, cmp.AllowUnexported(pair{})); diff != "" {
				t.Fatal("unexpected rows (-want +got)\n", diff)
			}
		})
	}
}

func TestUnpackItemList(t *testing.T) {
	require.Equal(t, "Primogem x60, Mora x10000", unpackItemList("Primogem*60;Mora*10000"))
	require.Equal(t, "Primogem x60, Hero's Wit", unpackItemList("[[Primogem]]*60; [[Hero's Wit]] ;"))
	require.Equal(t, "", unpackItemList(""))
}
