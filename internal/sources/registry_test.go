package sources

import (
	"hoyocodes-backend/internal/codes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	require.Equal(t, codes.Games, r.Games())

	for _, game := range r.Games() {
		list, err := r.Enumerate(game)
		require.NoError(t, err)
		require.NotEmpty(t, list, "game %s has no sources", game)
	}
}

func TestEnumerateOrder(t *testing.T) {
	r, err := Parse([]byte(`
games:
  - game: genshin
    sources:
      - source: prydwen
        url: https://example.com/a
      - source: gamesradar
        url: https://example.com/b
`))
	require.NoError(t, err)

	list, err := r.Enumerate(codes.GameGenshin)
	require.NoError(t, err)
	require.Equal(t, []SourceURL{
		{Source: codes.SourcePrydwen, URL: "https://example.com/a"},
		{Source: codes.SourceGamesRadar, URL: "https://example.com/b"},
	}, list)

	_, err = r.Enumerate(codes.GameZZZ)
	require.ErrorIs(t, err, ErrUnknownGame)
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"games:\n  - game: pokemon\n    sources: []\n",
		"games:\n  - game: genshin\n    sources:\n      - source: nowhere\n        url: https://example.com\n",
		"games:\n  - game: genshin\n    sources:\n      - source: prydwen\n        url: /relative\n",
		"games:\n  - game: genshin\n    sources:\n      - source: prydwen\n        url: https://a.com\n      - source: prydwen\n        url: https://b.com\n",
		"games: [",
	}
	for _, c := range cases {
		_, err := Parse([]byte(c))
		require.Error(t, err, c)
	}
}
