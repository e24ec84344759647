package aggregate

import (
	"context"
	"errors"
	"hoyocodes-backend/internal/codes"
	"hoyocodes-backend/internal/components/telemetry"
	"hoyocodes-backend/internal/extract"
	"hoyocodes-backend/internal/fetcher"
	"hoyocodes-backend/internal/sources"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	pages    map[string]string
	statuses map[string]int
}

func (f fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if status, ok := f.statuses[url]; ok {
		return nil, &fetcher.FetchError{URL: url, StatusCode: status}
	}
	page, ok := f.pages[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return []byte(page), nil
}

type recordingSink struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingSink) Notify(_ context.Context, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

const twoSourceRegistry = `
games:
  - game: genshin
    sources:
      - source: gamerant
        url: https://a.example.com/codes
      - source: prydwen
        url: https://b.example.com/codes
`

func table(rows ...[2]string) string {
	out := "<table>"
	for _, r := range rows {
		out += "<tr><td>" + r[0] + "</td><td>" + r[1] + "</td></tr>"
	}
	return out + "</table>"
}

func box(rows ...[2]string) string {
	out := `<div class="codes">`
	for _, r := range rows {
		out += `<div><p class="code">` + r[0] + `</p><p class="rewards">` + r[1] + `</p></div>`
	}
	return out + "</div>"
}

func setup(t testing.TB, pages map[string]string, cfg Config) (*Aggregator, *recordingSink, *telemetry.MemoryAPI) {
	registry, err := sources.Parse([]byte(twoSourceRegistry))
	require.NoError(t, err)

	sink := &recordingSink{}
	tel := &telemetry.MemoryAPI{}
	return New(registry, fakeFetcher{pages: pages}, sink, extract.DefaultOptions(), cfg, tel), sink, tel
}

func TestAggregateDeduplicates(t *testing.T) {
	agg, sink, _ := setup(t, map[string]string{
		"https://a.example.com/codes": table([2]string{"ABC123", "Primogem x60"}, [2]string{"ONLYA", ""}),
		"https://b.example.com/codes": box([2]string{"abc123", "other reward"}, [2]string{"ONLYB", "Mora"}),
	}, DefaultConfig())

	candidates, err := agg.Aggregate(context.Background(), codes.GameGenshin)
	require.NoError(t, err)

	expected := []Candidate{
		{Code: "ABC123", Rewards: "Primogem x60"},
		{Code: "ONLYA"},
		{Code: "ONLYB", Rewards: "Mora"},
	}
	if diff := cmp.Diff(expected, candidates); diff != "" {
		t.Fatal("unexpected candidates (-want +got)\n", diff)
	}
	require.Empty(t, sink.messages)
}

func TestAggregateFirstNonEmptyRewardWins(t *testing.T) {
	agg, _, _ := setup(t, map[string]string{
		"https://a.example.com/codes": table([2]string{"genshingift", ""}),
		"https://b.example.com/codes": box([2]string{"GENSHINGIFT", "50 Primos"}),
	}, DefaultConfig())

	candidates, err := agg.Aggregate(context.Background(), codes.GameGenshin)
	require.NoError(t, err)
	require.Equal(t, []Candidate{{Code: "GENSHINGIFT", Rewards: "50 Primos"}}, candidates)
}

func TestMergeDropsEmptyCodes(t *testing.T) {
	candidates := merge([][]codes.RawCode{
		{{Code: "NEW!"}, {Code: " / trailing"}, {Code: "OK1 [1]"}},
		{{Code: "ok1", Rewards: "late"}},
	})
	require.Equal(t, []Candidate{{Code: "OK1", Rewards: "late"}}, candidates)
}

func TestAggregateEmptyResultAlerts(t *testing.T) {
	agg, sink, tel := setup(t, map[string]string{
		"https://a.example.com/codes": table([2]string{"ABC123", ""}),
		"https://b.example.com/codes": `<div class="layout-changed"></div>`,
	}, DefaultConfig())

	candidates, err := agg.Aggregate(context.Background(), codes.GameGenshin)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Len(t, sink.messages, 1)
	require.Contains(t, sink.messages[0], "prydwen")
	require.Len(t, tel.Reports("warning", report_aggregator_extract_source), 1)
}

func TestAggregateFlakySourceDoesNotAlert(t *testing.T) {
	agg, sink, _ := setup(t, map[string]string{
		"https://a.example.com/codes": table([2]string{"ABC123", ""}),
		"https://b.example.com/codes": `<div class="codes"></div>`,
	}, Config{FlakySources: []codes.Source{codes.SourcePrydwen}})

	_, err := agg.Aggregate(context.Background(), codes.GameGenshin)
	require.NoError(t, err)
	require.Empty(t, sink.messages)
}

func TestAggregateFetchFailureIsSkipped(t *testing.T) {
	agg, sink, tel := setup(t, map[string]string{
		"https://b.example.com/codes": box([2]string{"ONLYB", "Mora"}),
	}, DefaultConfig())

	candidates, err := agg.Aggregate(context.Background(), codes.GameGenshin)
	require.NoError(t, err)
	require.Equal(t, []Candidate{{Code: "ONLYB", Rewards: "Mora"}}, candidates)
	require.Len(t, tel.Reports("warning", report_aggregator_fetch_source), 1)
	require.Empty(t, sink.messages)
}

func TestAggregateBlockedSourceAlerts(t *testing.T) {
	registry, err := sources.Parse([]byte(twoSourceRegistry))
	require.NoError(t, err)
	pages := fakeFetcher{
		pages:    map[string]string{"https://b.example.com/codes": box([2]string{"ONLYB", "Mora"})},
		statuses: map[string]int{"https://a.example.com/codes": 403},
	}

	sink := &recordingSink{}
	agg := New(registry, pages, sink, extract.DefaultOptions(), DefaultConfig(), &telemetry.MemoryAPI{})
	candidates, err := agg.Aggregate(context.Background(), codes.GameGenshin)
	require.NoError(t, err)
	require.Equal(t, []Candidate{{Code: "ONLYB", Rewards: "Mora"}}, candidates)
	require.Len(t, sink.messages, 1)
	require.Contains(t, sink.messages[0], "gamerant answered 403")

	cfg := DefaultConfig()
	cfg.FlakySources = []codes.Source{codes.SourceGameRant}
	sink = &recordingSink{}
	agg = New(registry, pages, sink, extract.DefaultOptions(), cfg, &telemetry.MemoryAPI{})
	_, err = agg.Aggregate(context.Background(), codes.GameGenshin)
	require.NoError(t, err)
	require.Empty(t, sink.messages)
}

func TestAggregateUnknownGame(t *testing.T) {
	agg, _, _ := setup(t, nil, DefaultConfig())
	_, err := agg.Aggregate(context.Background(), codes.GameZZZ)
	require.ErrorIs(t, err, sources.ErrUnknownGame)
}

func TestAggregateAll(t *testing.T) {
	agg, _, _ := setup(t, map[string]string{
		"https://a.example.com/codes": table([2]string{"ABC123", ""}),
		"https://b.example.com/codes": box([2]string{"DEF456", ""}),
	}, DefaultConfig())

	all, err := agg.AggregateAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[codes.Game][]Candidate{
		codes.GameGenshin: {{Code: "ABC123"}, {Code: "DEF456"}},
	}, all)
}

func TestAggregateCancelled(t *testing.T) {
	agg, _, _ := setup(t, map[string]string{}, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agg.Aggregate(ctx, codes.GameGenshin)
	require.ErrorIs(t, err, context.Canceled)
}
