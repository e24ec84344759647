package extract

import (
	"fmt"
	"hoyocodes-backend/lib/htmlutil"
	"hoyocodes-backend/lib/textutil"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ListOptions configures the list strategy, where codes are the emphasized leading run of
// list items and the reward follows a dash.
type ListOptions struct {
	Container string
	// HeadingKeywords and HeadingTitles restrict extraction to lists that follow a matching
	// h2, see textutil.MatchHeading. When both are empty every top-level list is used.
	HeadingKeywords []string
	HeadingTitles   []string
	FirstListOnly   bool
}

func (o ListOptions) filtersHeadings() bool {
	return len(o.HeadingKeywords) > 0 || len(o.HeadingTitles) > 0
}

var rewardSeparator = regexp.MustCompile(`[-–—:]`)

func extractList(doc *goquery.Document, opts ListOptions) ([]pair, error) {
	container := doc.Find(opts.Container).First()
	if container.Length() == 0 {
		return nil, fmt.Errorf("container %q not found", opts.Container)
	}

	isTopLevel := func(list *goquery.Selection) bool {
		return list.ParentsUntilSelection(container).Filter("li").Length() == 0
	}

	var lists []*goquery.Selection
	switch {
	case opts.filtersHeadings():
		accepted := false
		matchedAny := false
		container.Find("h2, ul").Each(func(_ int, s *goquery.Selection) {
			if goquery.NodeName(s) == "h2" {
				accepted = textutil.MatchHeading(htmlutil.Text(s), opts.HeadingKeywords, opts.HeadingTitles)
				matchedAny = matchedAny || accepted
				return
			}
			if accepted && isTopLevel(s) {
				lists = append(lists, s)
			}
		})
		if !matchedAny {
			return nil, fmt.Errorf("no heading matching %v in %q", opts.HeadingTitles, opts.Container)
		}
	case opts.FirstListOnly:
		first := container.Find("ul").First()
		if first.Length() == 0 {
			return nil, fmt.Errorf("no list in %q", opts.Container)
		}
		lists = append(lists, first)
	default:
		container.Find("ul").Each(func(_ int, s *goquery.Selection) {
			if isTopLevel(s) {
				lists = append(lists, s)
			}
		})
	}

	var out []pair
	for _, list := range lists {
		list.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
			p, ok := listItem(li)
			if ok {
				out = append(out, p)
			}
		})
	}
	return out, nil
}

func listItem(li *goquery.Selection) (pair, bool) {
	emphasized := li.Find("strong, b").First()
	if emphasized.Length() == 0 {
		return pair{}, false
	}
	lead := htmlutil.Text(emphasized)
	if !textutil.IsUpper(lead) {
		return pair{}, false
	}

	code, _, _ := strings.Cut(lead, "/")
	code = strings.TrimSpace(code)
	if code == "" {
		return pair{}, false
	}

	full := htmlutil.Text(li)
	rest := full
	if idx := strings.Index(full, lead); idx >= 0 {
		rest = full[idx+len(lead):]
	}
	rewards := ""
	if loc := rewardSeparator.FindStringIndex(rest); loc != nil {
		rewards = strings.TrimSpace(rest[loc[1]:])
	}

	return pair{code: code, rewards: rewards}, true
}
