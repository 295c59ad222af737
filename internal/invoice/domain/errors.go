package domain

import "errors"

var (
	ErrInvoiceNotFound = errors.New("invoice_not_found")
	ErrCompanyNotFound = errors.New("invoice_company_not_found")
	ErrInvalidInvoice  = errors.New("invalid_invoice")
)
