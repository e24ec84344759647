package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<ul><li><strong>ABC </strong> -  50 <em>Primogems</em>
		and more</li></ul>`,
	))
	require.NoError(t, err)

	li := doc.Find("li")
	require.Equal(t, "ABC - 50 Primogems and more", Text(li))
	require.Equal(t, "- 50 Primogems and more", TextAfter(li.Find("strong")))
	require.Equal(t, "", TextAfter(li.Find("b")))
}
