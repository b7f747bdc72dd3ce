package blitz

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Error is a failure of an operation of the contract. The operation has no
// effect when it fails. The code is stable and can be used by the clients.
type Error struct {
	Code    uint32
	Name    string
	message string
}

func newError(code uint32, name, message string) *Error {
	return &Error{Code: code, Name: name, message: message}
}

// Error implements error. It returns the message and the code of the error.
func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s #%d)", e.message, e.Name, e.Code)
}

var (
	// ErrAuctionEnded is returned when a bid is placed after the end of the
	// auction.
	ErrAuctionEnded = newError(1, "AuctionEnded", "auction has ended")

	// ErrNoActiveAuction is returned when a bid is placed but no auction was
	// ever started.
	ErrNoActiveAuction = newError(2, "NoActiveAuction", "no active auction")

	// ErrBidTooLow is returned when the amount is lower than the minimum bid.
	ErrBidTooLow = newError(3, "BidTooLow", "bid is too low")

	// ErrEmptyPayload is returned when a bid does not carry a payload.
	ErrEmptyPayload = newError(4, "EmptyUrl", "payload is empty")

	// ErrNoAuctionToEnd is returned when the auction slot was never started.
	ErrNoAuctionToEnd = newError(5, "NoAuctionToEnd", "no auction to end")

	// ErrAuctionNotEnded is returned when the auction is closed before its end
	// time.
	ErrAuctionNotEnded = newError(6, "AuctionNotEnded", "auction has not ended")

	// ErrAlreadyEnded is returned when the auction is closed twice.
	ErrAlreadyEnded = newError(7, "AlreadyEnded", "auction already ended")

	// ErrUnauthorized is returned when the signer of the transaction is not
	// allowed to run the operation.
	ErrUnauthorized = newError(8, "Unauthorized", "unauthorized")

	// ErrAlreadyInitialized is returned when the contract is initialized
	// twice.
	ErrAlreadyInitialized = newError(9, "AlreadyInitialized", "already initialized")

	// ErrNotInitialized is returned by any operation before the contract is
	// initialized.
	ErrNotInitialized = newError(10, "NotInitialized", "not initialized")

	// ErrInvalidValue is returned when an argument is missing or malformed.
	ErrInvalidValue = newError(11, "InvalidValue", "invalid value")
)

// CodeOf returns the code of the contract error wrapped by err, or zero if
// there is none.
func CodeOf(err error) uint32 {
	var e *Error
	if xerrors.As(err, &e) {
		return e.Code
	}

	return 0
}
