package http

import (
	"fmt"

	domain "main/internal/domain/entity/trading"
)

const (
	actionBuy     = "buy"
	actionSell    = "sell"
	actionFlatten = "flatten"
)

// orderPayload is the order intent body. Contracts is ignored for flatten.
type orderPayload struct {
	Action       string `json:"action"`
	Contracts    int    `json:"contracts"`
	ContractType string `json:"contract_type"`
}

func (p orderPayload) validate() error {
	switch p.Action {
	case actionBuy, actionSell:
		if p.Contracts <= 0 {
			return fmt.Errorf("contracts must be a positive integer")
		}
	case actionFlatten:
	default:
		return errUnknownAction
	}
	if p.ContractType != "" && !domain.ContractType(p.ContractType).IsValid() {
		return fmt.Errorf("unknown contract_type %q", p.ContractType)
	}
	return nil
}

// contractType defaults to the micro contract when unset.
func (p orderPayload) contractType() domain.ContractType {
	if p.ContractType == "" {
		return domain.ContractMNQ
	}
	return domain.ContractType(p.ContractType)
}

type speedPayload struct {
	Speed float64 `json:"speed"`
}
