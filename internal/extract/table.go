package extract

import (
	"fmt"
	"hoyocodes-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// extractTable reads the first table of the page, column 1 is the code and column 2 the reward.
//
// Rows without data cells (headers) or with an empty first cell are skipped. A row with a
// code but no second cell keeps the code with empty reward text.
func extractTable(doc *goquery.Document) ([]pair, error) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no table found")
	}

	var out []pair
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() == 0 {
			return
		}
		code := htmlutil.Text(cells.Eq(0))
		if code == "" {
			return
		}
		rewards := ""
		if cells.Length() > 1 {
			rewards = htmlutil.Text(cells.Eq(1))
		}
		out = append(out, pair{code: code, rewards: rewards})
	})
	return out, nil
}
