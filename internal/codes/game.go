package codes

import (
	"fmt"
	"strings"
)

// Game identifies a title codes are collected for.
type Game string

const (
	GameGenshin  Game = "genshin"
	GameStarRail Game = "hkrpg"
	GameHonkai   Game = "honkai3rd"
	GameZZZ      Game = "nap"
	GameTOT      Game = "tot"
)

// Games lists every known game in a stable order.
var Games = []Game{GameGenshin, GameStarRail, GameHonkai, GameZZZ, GameTOT}

func ParseGame(s string) (Game, error) {
	normalized := Game(strings.ToLower(strings.TrimSpace(s)))
	for _, g := range Games {
		if g == normalized {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown game %q", s)
}

func (g Game) String() string {
	return string(g)
}

// Source identifies a public page or api codes are scraped from.
type Source string

const (
	SourceGamesRadar    Source = "gamesradar"
	SourcePocketTactics Source = "pockettactics"
	SourcePrydwen       Source = "prydwen"
	SourceGameRant      Source = "gamerant"
	SourceTryHardGuides Source = "tryhard_guides"
	SourceGIFandom      Source = "gi_fandom"
	SourceHSRFandom     Source = "hsr_fandom"
	SourceZZZFandom     Source = "zzz_fandom"
	SourceHoyolab       Source = "hoyolab"
)

var Sources = []Source{
	SourceGamesRadar,
	SourcePocketTactics,
	SourcePrydwen,
	SourceGameRant,
	SourceTryHardGuides,
	SourceGIFandom,
	SourceHSRFandom,
	SourceZZZFandom,
	SourceHoyolab,
}

func ParseSource(s string) (Source, error) {
	normalized := Source(strings.ToLower(strings.TrimSpace(s)))
	for _, src := range Sources {
		if src == normalized {
			return src, nil
		}
	}
	return "", fmt.Errorf("unknown source %q", s)
}

func (s Source) String() string {
	return string(s)
}
