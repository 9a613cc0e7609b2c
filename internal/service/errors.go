package service

import (
	"errors"
	"fmt"
)

// Error categories. Handlers map each category to one HTTP status.
var (
	// ErrPermissionDenied is returned when the caller may not act on the resource
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is missing or not in a state the operation accepts
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when a request breaks a business rule
	ErrInvalidInput = errors.New("invalid input")

	// ErrExternalDependency is returned when the warehouse or another upstream system fails
	ErrExternalDependency = errors.New("external dependency failure")

	// ErrUserContextRequired is returned when no authenticated caller is present
	ErrUserContextRequired = errors.New("user context required")
)

// Specific errors wrap a category so errors.Is matches both.
var (
	ErrBidNotFound          = fmt.Errorf("%w: bid not found", ErrNotFound)
	ErrBidWrongStatus       = fmt.Errorf("%w: bid is not in a status that allows this action", ErrNotFound)
	ErrPositionNotFound     = fmt.Errorf("%w: position not found", ErrNotFound)
	ErrBidCycleNotFound     = fmt.Errorf("%w: bid cycle not found", ErrNotFound)
	ErrHandshakeNotFound    = fmt.Errorf("%w: handshake not found", ErrNotFound)
	ErrHandshakeRevoked     = fmt.Errorf("%w: handshake has been revoked", ErrNotFound)
	ErrRankingNotLocked     = fmt.Errorf("%w: ranking is not locked", ErrNotFound)
	ErrStatisticsNotFound   = fmt.Errorf("%w: statistics not found", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("%w: notification not found", ErrNotFound)

	ErrSubmittedLimitReached  = fmt.Errorf("%w: submitted bid limit reached", ErrInvalidInput)
	ErrPriorityBidExists      = fmt.Errorf("%w: another priority bid exists in this bid cycle", ErrInvalidInput)
	ErrBidCycleInactive       = fmt.Errorf("%w: bid cycle is not active", ErrInvalidInput)
	ErrBidAlreadyExists       = fmt.Errorf("%w: position is already on the bid list", ErrInvalidInput)
	ErrExpirationInPast       = fmt.Errorf("%w: expiration date must not be in the past", ErrInvalidInput)
	ErrEmptyRankingBatch      = fmt.Errorf("%w: ranking batch is empty", ErrInvalidInput)
	ErrMixedRankingBatch      = fmt.Errorf("%w: ranking batch spans more than one position", ErrInvalidInput)
	ErrDuplicateRankingBidder = fmt.Errorf("%w: ranking batch lists a bidder more than once", ErrInvalidInput)
	ErrPanelDateRequired      = fmt.Errorf("%w: scheduled panel date is required", ErrInvalidInput)
	ErrInvalidScope           = fmt.Errorf("%w: grant scope is invalid", ErrInvalidInput)
	ErrCycleDeadlinePassed    = fmt.Errorf("%w: bid cycle deadline has passed", ErrPermissionDenied)
	ErrBidNotOwnerClosable    = fmt.Errorf("%w: only draft or submitted bids can be closed by their owner", ErrPermissionDenied)
	ErrHandshakeOfferConflict = errors.New("a competing handshake offer was recorded concurrently")
)
