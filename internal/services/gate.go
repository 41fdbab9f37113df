package services

import (
	"gorm.io/gorm"
)

// Identity is the identity/session contract the gate depends on.
type Identity interface {
	Decode(credential string) (uint, error)
	IsCurrentAndValid(tx *gorm.DB, userID uint, credential string) bool
}

// Gate is the single place that compares a presented credential with a
// resource owner. Callers pass the transaction handle so the check is part
// of the mutation it guards.
type Gate struct {
	identity Identity
}

func NewGate(identity Identity) *Gate {
	return &Gate{identity: identity}
}

// Authenticate resolves credential to the id of a logged-in user.
func (g *Gate) Authenticate(tx *gorm.DB, credential string) (uint, error) {
	id, err := g.identity.Decode(credential)
	if err != nil {
		return 0, ErrUnauthorized
	}
	if !g.identity.IsCurrentAndValid(tx, id, credential) {
		return 0, ErrUnauthorized
	}
	return id, nil
}

// IsOwner never fails: any decode or session problem is simply "not the owner".
func (g *Gate) IsOwner(tx *gorm.DB, candidateID uint, credential string) bool {
	id, err := g.Authenticate(tx, credential)
	return err == nil && id == candidateID
}

// RequireOwner distinguishes an unauthenticated caller from an
// authenticated non-owner.
func (g *Gate) RequireOwner(tx *gorm.DB, ownerID uint, credential string) error {
	id, err := g.Authenticate(tx, credential)
	if err != nil {
		return err
	}
	if id != ownerID {
		return ErrForbidden
	}
	return nil
}

// RequireNonOwner returns the caller's id when it is a logged-in user other
// than ownerID.
func (g *Gate) RequireNonOwner(tx *gorm.DB, ownerID uint, credential string) (uint, error) {
	id, err := g.Authenticate(tx, credential)
	if err != nil {
		return 0, err
	}
	if id == ownerID {
		return 0, ErrSelfSupport
	}
	return id, nil
}
