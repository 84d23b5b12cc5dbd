package handler

import (
	"net/url"
	"strconv"
	"strings"

	"bondbook/internal/bond/models"
	dErrors "bondbook/pkg/domain-errors"
)

// CreateBondRequest is the POST /bonds payload. Fields are pointers so that
// absent and zero values stay distinguishable. Unknown fields such as
// legal_name or owner are ignored.
type CreateBondRequest struct {
	ISIN     *string `json:"isin"`
	Size     *int64  `json:"size"`
	Currency *string `json:"currency"`
	Maturity *string `json:"maturity"`
	LEI      *string `json:"lei"`
}

// Normalize trims whitespace around string fields.
func (r *CreateBondRequest) Normalize() {
	for _, f := range []*string{r.ISIN, r.Currency, r.Maturity, r.LEI} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

func (r *CreateBondRequest) ToCandidate() *models.Candidate {
	return &models.Candidate{
		ISIN:     r.ISIN,
		Size:     r.Size,
		Currency: r.Currency,
		Maturity: r.Maturity,
		LEI:      r.LEI,
	}
}

const (
	msgInvalidInteger = "enter a whole number"
	msgInvalidDate    = "date has wrong format, use YYYY-MM-DD"
)

// parseFilter reads the optional equality filters of GET /bonds. Empty query
// values are treated as absent.
func parseFilter(q url.Values) (models.Filter, error) {
	var f models.Filter
	fields := map[string][]string{}

	str := func(key string) *string {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			return &v
		}
		return nil
	}

	f.ISIN = str("isin")
	f.Currency = str("currency")
	f.LEI = str("lei")
	f.LegalName = str("legal_name")

	if v := str("size"); v != nil {
		n, err := strconv.ParseInt(*v, 10, 64)
		if err != nil {
			fields["size"] = []string{msgInvalidInteger}
		} else {
			f.Size = &n
		}
	}
	if v := str("maturity"); v != nil {
		d, err := models.ParseDate(*v)
		if err != nil {
			fields["maturity"] = []string{msgInvalidDate}
		} else {
			f.Maturity = &d
		}
	}

	if len(fields) > 0 {
		return models.Filter{}, dErrors.WithFields(dErrors.CodeValidation, "invalid filter", fields)
	}
	return f, nil
}
