package services

import "errors"

// Decision and factory failure taxonomy. Routes map these onto HTTP
// status codes; everything else bubbles up as an internal error.
var (
	ErrInvalidStatus            = errors.New("invalid status, must be 'accepted' or 'refused'")
	ErrInvalidProposalKind      = errors.New("invalid proposal type")
	ErrProposalNotFound         = errors.New("proposal not found")
	ErrAlreadyDecided           = errors.New("proposal is already decided")
	ErrCapExceeded              = errors.New("accepting this proposal would exceed the requested amount")
	ErrTechnicalAlreadyAccepted = errors.New("another technical proposal is already accepted")
	ErrContractCreation         = errors.New("failed to create contract and collaboration")
	ErrDuplicateCollaboration   = errors.New("collaboration already exists for these parties")
)
