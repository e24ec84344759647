package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

type hoyolabIconBonus struct {
	BonusNum int    `json:"bonus_num"`
	IconURL  string `json:"icon_url"`
}

type hoyolabBonus struct {
	ExchangeCode string             `json:"exchange_code"`
	CodeStatus   string             `json:"code_status"`
	IconBonuses  []hoyolabIconBonus `json:"icon_bonuses"`
}

type hoyolabExchangeGroup struct {
	Bonuses []hoyolabBonus `json:"bonuses"`
}

type hoyolabModule struct {
	ExchangeGroup *hoyolabExchangeGroup `json:"exchange_group"`
	// Bonuses outside of an exchange group are event rewards, not codes.
	Bonuses []hoyolabBonus `json:"bonuses"`
}

type hoyolabResponse struct {
	Retcode int    `json:"retcode"`
	Message string `json:"message"`
	Data    struct {
		Modules []hoyolabModule `json:"modules"`
	} `json:"data"`
}

func extractHoyolab(content []byte) ([]pair, error) {
	var res hoyolabResponse
	err := json.Unmarshal(content, &res)
	if err != nil {
		return nil, fmt.Errorf("decode hoyolab response: %w", err)
	}
	if res.Retcode != 0 {
		return nil, fmt.Errorf("hoyolab retcode %d: %s", res.Retcode, res.Message)
	}

	var out []pair
	for _, module := range res.Data.Modules {
		if module.ExchangeGroup == nil {
			continue
		}
		for _, bonus := range module.ExchangeGroup.Bonuses {
			code := strings.TrimSpace(bonus.ExchangeCode)
			if code == "" {
				continue
			}
			rewards := make([]string, 0, len(bonus.IconBonuses))
			for _, icon := range bonus.IconBonuses {
				rewards = append(rewards, fmt.Sprintf("x%d", icon.BonusNum))
			}
			out = append(out, pair{code: code, rewards: strings.Join(rewards, ", ")})
		}
	}
	return out, nil
}
