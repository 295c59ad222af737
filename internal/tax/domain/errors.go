package domain

import "errors"

var (
	ErrInvalidRegion  = errors.New("invalid_region")
	ErrInvalidTaxRate = errors.New("invalid_tax_rate")
)
