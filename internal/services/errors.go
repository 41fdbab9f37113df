package services

import (
	"errors"
)

// Kind classifies a rejected call so the HTTP layer can map it to a status.
type Kind int

const (
	// KindStore is anything not produced by the domain: I/O, transaction or
	// driver failures. It is the zero value so unknown errors land here.
	KindStore Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindInvariant
	KindNotFound
)

// Error is a domain rejection. Every rejection reason is its own sentinel.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

var (
	ErrEmptySearchTerm = newError(KindValidation, "search term must not be empty")
	ErrInvalidSortBy   = newError(KindValidation, "unrecognised sortBy value")
	ErrInvalidPage     = newError(KindValidation, "startIndex and count must not be negative")
	ErrPageOutOfRange  = newError(KindValidation, "startIndex is past the end of the results")
	ErrUnknownCategory = newError(KindValidation, "categoryId does not reference an existing category")
	ErrInvalidCost     = newError(KindValidation, "support tier cost must not be negative")

	ErrUnauthorized = newError(KindUnauthorized, "not authenticated")
	ErrForbidden    = newError(KindForbidden, "only the owner of a petition may modify it")

	ErrTierCount              = newError(KindInvariant, "a petition needs between 1 and 3 support tiers")
	ErrDuplicatePetitionTitle = newError(KindInvariant, "petition title already exists")
	ErrDuplicateTierTitle     = newError(KindInvariant, "support tier title not unique within petition")
	ErrTierCeiling            = newError(KindInvariant, "can't add a support tier if 3 already exist")
	ErrTierHasSupporters      = newError(KindInvariant, "support tier already has supporters")
	ErrLastTier               = newError(KindInvariant, "can't remove the only support tier of a petition")
	ErrPetitionHasSupporters  = newError(KindInvariant, "can't delete a petition with one or more supporters")
	ErrSelfSupport            = newError(KindInvariant, "cannot support your own petition")
	ErrDuplicatePledge        = newError(KindInvariant, "already supported at this tier")
	ErrEmailInUse             = newError(KindInvariant, "email already in use")
	ErrWrongPassword          = newError(KindInvariant, "current password is incorrect")

	ErrPetitionNotFound = newError(KindNotFound, "no petition with id")
	ErrTierNotFound     = newError(KindNotFound, "support tier does not exist")
	ErrUserNotFound     = newError(KindNotFound, "no user with id")
)

// KindOf reports the kind of err, KindStore for anything that is not a
// domain rejection.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindStore
}
