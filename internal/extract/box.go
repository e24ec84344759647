package extract

import (
	"fmt"
	"hoyocodes-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// BoxOptions configures the box strategy, where each code element has a sibling reward element.
type BoxOptions struct {
	Container string
	Code      string
	Rewards   string
}

func extractBox(doc *goquery.Document, opts BoxOptions) ([]pair, error) {
	container := doc.Find(opts.Container).First()
	if container.Length() == 0 {
		return nil, fmt.Errorf("container %q not found", opts.Container)
	}

	var out []pair
	container.Find(opts.Code).Each(func(_ int, s *goquery.Selection) {
		code := htmlutil.Text(s)
		if code == "" {
			return
		}
		rewards := htmlutil.Text(s.Parent().ChildrenFiltered(opts.Rewards).First())
		out = append(out, pair{code: code, rewards: rewards})
	})
	return out, nil
}
