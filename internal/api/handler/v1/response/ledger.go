package response

import "github.com/vietanh2810/kids-ledger-api/internal/domain"

type CreateChildResponse struct {
	Child   domain.Child   `json:"child"`
	Balance domain.Balance `json:"balance"`
}

type BalanceMoveResponse struct {
	Balance     domain.Balance     `json:"balance"`
	Transaction domain.Transaction `json:"transaction"`
}

type GenerateQRCodesResponse struct {
	Count int             `json:"count"`
	Codes []domain.QRCode `json:"codes"`
}
