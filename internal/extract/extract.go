// Package extract turns the content of a code source into raw codes. Every source maps to
// exactly one extraction strategy, each strategy is a pure function of the content.
package extract

import (
	"bytes"
	"fmt"
	"hoyocodes-backend/internal/codes"

	"github.com/PuerkitoBio/goquery"
)

type Strategy string

const (
	StrategyList  Strategy = "list"
	StrategyTable Strategy = "table"
	StrategyBox   Strategy = "box"
	StrategyWiki  Strategy = "wiki"
	StrategyJSON  Strategy = "json"
)

// ExtractionError means the content did not have the structure a strategy expects,
// usually because the source changed its layout.
type ExtractionError struct {
	Source codes.Source
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s", e.Source, e.Reason)
}

type Options struct {
	// ExcludedServers are wiki server values whose rows are dropped, compared case-insensitively.
	ExcludedServers []string `json:"excluded_servers"`
}

func DefaultOptions() Options {
	return Options{ExcludedServers: []string{"CN"}}
}

var (
	gamesradarList = ListOptions{
		Container:       "div#article-body",
		HeadingKeywords: []string{"livestream"},
		HeadingTitles: []string{
			"Genshin Impact active codes",
			"Honkai Star Rail codes",
		},
	}
	pocketTacticsList = ListOptions{
		Container:     "div.entry-content",
		FirstListOnly: true,
	}
	tryHardGuidesList = ListOptions{
		Container:     "div.entry-content",
		FirstListOnly: true,
	}
	prydwenBox = BoxOptions{
		Container: "div.codes",
		Code:      ".code",
		Rewards:   ".rewards",
	}
	fandomRows = WikiOptions{
		RowTemplate: "Code Row",
	}
)

// StrategyOf returns the strategy used for a source.
func StrategyOf(source codes.Source) (Strategy, error) {
	switch source {
	case codes.SourceGamesRadar, codes.SourcePocketTactics, codes.SourceTryHardGuides:
		return StrategyList, nil
	case codes.SourceGameRant:
		return StrategyTable, nil
	case codes.SourcePrydwen:
		return StrategyBox, nil
	case codes.SourceGIFandom, codes.SourceHSRFandom, codes.SourceZZZFandom:
		return StrategyWiki, nil
	case codes.SourceHoyolab:
		return StrategyJSON, nil
	}
	return "", fmt.Errorf("no extraction strategy for source %q", source)
}

// Extract runs the strategy of source over content.
func Extract(source codes.Source, content []byte, opts Options) ([]codes.RawCode, error) {
	var (
		pairs []pair
		err   error
	)
	switch source {
	case codes.SourceGamesRadar:
		pairs, err = withDocument(content, func(doc *goquery.Document) ([]pair, error) {
			return extractList(doc, gamesradarList)
		})
	case codes.SourcePocketTactics:
		pairs, err = withDocument(content, func(doc *goquery.Document) ([]pair, error) {
			return extractList(doc, pocketTacticsList)
		})
	case codes.SourceTryHardGuides:
		pairs, err = withDocument(content, func(doc *goquery.Document) ([]pair, error) {
			return extractList(doc, tryHardGuidesList)
		})
	case codes.SourceGameRant:
		pairs, err = withDocument(content, extractTable)
	case codes.SourcePrydwen:
		pairs, err = withDocument(content, func(doc *goquery.Document) ([]pair, error) {
			return extractBox(doc, prydwenBox)
		})
	case codes.SourceGIFandom, codes.SourceHSRFandom, codes.SourceZZZFandom:
		wiki := fandomRows
		wiki.ExcludedServers = opts.ExcludedServers
		pairs, err = extractWiki(string(content), wiki)
	case codes.SourceHoyolab:
		pairs, err = extractHoyolab(content)
	default:
		return nil, fmt.Errorf("no extraction strategy for source %q", source)
	}
	if err != nil {
		return nil, &ExtractionError{Source: source, Reason: err.Error()}
	}

	out := make([]codes.RawCode, len(pairs))
	for i, p := range pairs {
		out[i] = codes.RawCode{Source: source, Code: p.code, Rewards: p.rewards}
	}
	return out, nil
}

// pair is a (code, rewards) pair as produced by a strategy.
type pair struct {
	code    string
	rewards string
}

func withDocument(content []byte, extract func(doc *goquery.Document) ([]pair, error)) ([]pair, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return extract(doc)
}
