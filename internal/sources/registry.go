package sources

import (
	_ "embed"
	"errors"
	"fmt"
	"hoyocodes-backend/internal/codes"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed sources.yaml
var defaultCatalog []byte

var ErrUnknownGame = errors.New("unknown game")

// SourceURL is a single page or api a game's codes are scraped from.
type SourceURL struct {
	Source codes.Source
	URL    string
}

type yamlSource struct {
	Source string `yaml:"source"`
	URL    string `yaml:"url"`
}

type yamlGame struct {
	Game    string       `yaml:"game"`
	Sources []yamlSource `yaml:"sources"`
}

type yamlCatalog struct {
	Games []yamlGame `yaml:"games"`
}

// Registry is the declarative catalog of sources per game.
type Registry struct {
	games   []codes.Game
	sources map[codes.Game][]SourceURL
}

// Default returns the registry embedded in the binary.
func Default() (Registry, error) {
	return Parse(defaultCatalog)
}

// Load reads a registry from a yaml file, an empty path loads Default.
func Load(path string) (Registry, error) {
	if path == "" {
		return Default()
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Registry{}, fmt.Errorf("read source registry: %w", err)
	}
	return Parse(content)
}

func Parse(content []byte) (Registry, error) {
	var catalog yamlCatalog
	err := yaml.Unmarshal(content, &catalog)
	if err != nil {
		return Registry{}, fmt.Errorf("parse source registry: %w", err)
	}

	r := Registry{sources: map[codes.Game][]SourceURL{}}
	for _, g := range catalog.Games {
		game, err := codes.ParseGame(g.Game)
		if err != nil {
			return Registry{}, fmt.Errorf("parse source registry: %w", err)
		}
		if _, exists := r.sources[game]; exists {
			return Registry{}, fmt.Errorf("parse source registry: game %s declared twice", game)
		}

		seen := map[codes.Source]bool{}
		list := make([]SourceURL, 0, len(g.Sources))
		for _, s := range g.Sources {
			source, err := codes.ParseSource(s.Source)
			if err != nil {
				return Registry{}, fmt.Errorf("parse source registry: %s: %w", game, err)
			}
			if seen[source] {
				return Registry{}, fmt.Errorf("parse source registry: %s: source %s declared twice", game, source)
			}
			seen[source] = true

			parsed, err := url.Parse(s.URL)
			if err != nil || !parsed.IsAbs() {
				return Registry{}, fmt.Errorf("parse source registry: %s/%s: invalid url %q", game, source, s.URL)
			}
			list = append(list, SourceURL{Source: source, URL: s.URL})
		}

		r.games = append(r.games, game)
		r.sources[game] = list
	}
	return r, nil
}

// Games returns the games in declaration order.
func (r Registry) Games() []codes.Game {
	out := make([]codes.Game, len(r.games))
	copy(out, r.games)
	return out
}

// Enumerate returns the sources of a game in declaration order.
func (r Registry) Enumerate(game codes.Game) ([]SourceURL, error) {
	list, ok := r.sources[game]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, game)
	}
	out := make([]SourceURL, len(list))
	copy(out, list)
	return out, nil
}
