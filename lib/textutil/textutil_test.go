package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchHeading(t *testing.T) {
	keywords := []string{"livestream"}
	titles := []string{"Genshin Impact active codes"}

	table := []struct {
		heading  string
		expected bool
	}{
		{heading: "Genshin Impact active codes", expected: true},
		{heading: "  genshin impact  active codes\n", expected: true},
		{heading: "Genshin Impact active code", expected: true},
		{heading: "Version 5.2 Livestream codes", expected: true},
		{heading: "Expired codes", expected: false},
		{heading: "", expected: false},
	}
	for _, row := range table {
		require.Equal(t, row.expected, MatchHeading(row.heading, keywords, titles), row.heading)
	}
}

func TestIsUpper(t *testing.T) {
	require.True(t, IsUpper("GENSHINGIFT"))
	require.True(t, IsUpper("ABC123 / DEF"))
	require.False(t, IsUpper("GenshinGift"))
	require.False(t, IsUpper("12345"))
	require.False(t, IsUpper(""))
}
