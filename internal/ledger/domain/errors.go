package domain

import "errors"

var (
	ErrInvalidCompany = errors.New("invalid_company")
	ErrInvalidType    = errors.New("invalid_transaction_type")
	ErrInvalidStatus  = errors.New("invalid_transaction_status")
	ErrMissingTx      = errors.New("missing_transaction")
)
