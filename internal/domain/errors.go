package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnknownAsset        = errors.New("unknown asset")
	ErrInvalidRoyalty      = errors.New("royalty exceeds 10%")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidFee          = errors.New("invalid marketplace fee")
	ErrNotOwner            = errors.New("caller is not the asset owner")
	ErrNotSeller           = errors.New("caller is not the listing seller")
	ErrNotAdmin            = errors.New("caller is not the marketplace admin")
	ErrNoActiveListing     = errors.New("no active listing")
	ErrInvalidMetadata     = errors.New("invalid track metadata")
	ErrInsufficientPayment = errors.New("payment below listing price")
	ErrFeeOverflow         = errors.New("royalty plus fee exceeds price")
	ErrTransferFailed      = errors.New("currency transfer failed")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrRateLimited         = errors.New("rate limited")
	ErrLockHeld            = errors.New("lock already held")
)
