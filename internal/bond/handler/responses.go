package handler

import "bondbook/internal/bond/models"

// BondResponse is the public form of a bond. The owner and the created date
// are not exposed.
type BondResponse struct {
	ISIN      string `json:"isin"`
	Size      int64  `json:"size"`
	Currency  string `json:"currency"`
	Maturity  string `json:"maturity"`
	LEI       string `json:"lei"`
	LegalName string `json:"legal_name"`
}

func toBondResponse(b *models.Bond) BondResponse {
	return BondResponse{
		ISIN:      b.ISIN,
		Size:      b.Size,
		Currency:  b.Currency,
		Maturity:  b.Maturity.Format(models.DateLayout),
		LEI:       b.LEI,
		LegalName: b.LegalName,
	}
}

func toBondResponses(bonds []*models.Bond) []BondResponse {
	out := make([]BondResponse, 0, len(bonds))
	for _, b := range bonds {
		out = append(out, toBondResponse(b))
	}
	return out
}

// createdResponse is the empty acknowledgement returned by POST /bonds.
type createdResponse struct{}
