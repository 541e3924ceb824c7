package service

import (
	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shinyyama/campus-market/internal/identity"
	"github.com/shinyyama/campus-market/internal/lifecycle"
	"github.com/shinyyama/campus-market/internal/model"
)

func requireActive(req identity.Requester) error {
	if !req.Authenticated() {
		return apperr.ErrUnauthorized
	}
	if req.Suspended {
		return apperr.ErrForbidden
	}
	return nil
}

func requireAdmin(req identity.Requester) error {
	if err := requireActive(req); err != nil {
		return err
	}
	if !req.IsAdmin {
		return apperr.ErrForbidden
	}
	return nil
}

// actorsFor derives the roles req holds with respect to item.
func actorsFor(req identity.Requester, item *model.Item) lifecycle.Actor {
	var a lifecycle.Actor
	if req.ID != "" && req.ID == item.SellerID {
		a |= lifecycle.ActorSeller
	}
	if item.SoldTo(req.ID) {
		a |= lifecycle.ActorBuyer
	}
	if req.IsAdmin {
		a |= lifecycle.ActorAdmin
	}
	return a
}

// canManage is the ownership rule for edits and deletes.
func canManage(req identity.Requester, item *model.Item) bool {
	return req.IsAdmin || (req.ID != "" && req.ID == item.SellerID)
}
