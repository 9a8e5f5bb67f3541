package types

import "errors"

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrApprovalNotFound   = errors.New("approval not found")
	ErrApprovalResolved   = errors.New("approval already resolved")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidDriver      = errors.New("invalid storage driver")
	ErrDecryptFailed      = errors.New("decryption failed")
)
