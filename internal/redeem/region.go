package redeem

import (
	"fmt"
	"hoyocodes-backend/internal/codes"
	"strings"
)

var (
	genshinRegions = map[byte]string{
		'6': "os_usa",
		'7': "os_euro",
		'8': "os_asia",
		'9': "os_cht",
	}
	starRailRegions = map[byte]string{
		'6': "prod_official_usa",
		'7': "prod_official_eur",
		'8': "prod_official_asia",
		'9': "prod_official_cht",
	}
	zzzRegions = map[string]string{
		"10": "prod_gf_us",
		"15": "prod_gf_eu",
		"13": "prod_gf_jp",
		"17": "prod_gf_sg",
	}
)

// Region returns the server region of a global account uid.
func Region(game codes.Game, uid string) (string, error) {
	uid = strings.TrimSpace(uid)
	var (
		region string
		ok     bool
	)
	switch game {
	case codes.GameGenshin:
		if len(uid) > 0 {
			region, ok = genshinRegions[uid[0]]
		}
	case codes.GameStarRail:
		if len(uid) > 0 {
			region, ok = starRailRegions[uid[0]]
		}
	case codes.GameZZZ:
		if len(uid) > 1 {
			region, ok = zzzRegions[uid[:2]]
		}
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedGame, game)
	}
	if !ok {
		return "", fmt.Errorf("unknown %s server for uid %q", game, uid)
	}
	return region, nil
}
