package codes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	table := []struct {
		input    string
		expected Code
	}{
		{input: "GENSHINGIFT", expected: "GENSHINGIFT"},
		{input: "  genshingift\t", expected: "GENSHINGIFT"},
		{input: "ABC123 / ABC124", expected: "ABC123"},
		{input: "abc123;def", expected: "ABC123"},
		{input: "STARRAILGIFT[1]", expected: "STARRAILGIFT"},
		{input: "NEW! HSRVER10 Quick Redeem", expected: "HSRVER10"},
		{input: "new! hsrver11 quick redeem", expected: "HSRVER11"},
		{input: "ZZZ2024[12] / ALT", expected: "ZZZ2024"},
		{input: "/leading", expected: ""},
		{input: "", expected: ""},
	}

	for _, row := range table {
		require.Equal(t, row.expected, Sanitize(row.input), "input %q", row.input)
	}
}

func TestSanitizeDelimiters(t *testing.T) {
	inputs := []string{"a/b", "x y ; z", "Code1/Code2;Code3", " q;/ ", "AB;CD/EF"}
	for _, input := range inputs {
		idx := strings.IndexAny(input, "/;")
		expected := strings.ToUpper(strings.TrimSpace(input[:idx]))
		require.Equal(t, Code(expected), Sanitize(input), "input %q", input)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"GENSHINGIFT",
		" mixed Case ",
		"A [1] B",
		"[[1]]",
		"NEW!NEW!",
		"NENEW!W!",
		"Quick QUICK REDEEM Redeem",
		"[1[2]]",
		"x / y ; z",
		"\tnew!  ",
		"ÄÖü",
	}
	for _, input := range inputs {
		once := Sanitize(input)
		require.Equal(t, once, Sanitize(string(once)), "input %q", input)
	}
}

func TestParse(t *testing.T) {
	game, err := ParseGame(" Genshin ")
	require.NoError(t, err)
	require.Equal(t, GameGenshin, game)

	_, err = ParseGame("pokemon")
	require.Error(t, err)

	src, err := ParseSource("HOYOLAB")
	require.NoError(t, err)
	require.Equal(t, SourceHoyolab, src)

	status, err := ParseStatus("not_ok")
	require.NoError(t, err)
	require.Equal(t, StatusNotOK, status)
}
