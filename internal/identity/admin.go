package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shinyyama/campus-market/internal/repository"
)

// AdminResolver decides admin status from the profile flag and the configured
// email allow-list. Token claims are only a mirror for clients; a revoked
// admin loses access on the next request, not when the token expires.
type AdminResolver struct {
	profiles  repository.UserProfileRepository
	allowList map[string]bool
}

func NewAdminResolver(profiles repository.UserProfileRepository, adminEmails []string) *AdminResolver {
	allow := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			allow[e] = true
		}
	}
	return &AdminResolver{profiles: profiles, allowList: allow}
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// CheckCurrentAdminStatus reports whether subjectID is an admin right now,
// ignoring token claims.
func (r *AdminResolver) CheckCurrentAdminStatus(ctx context.Context, subjectID, email string) (bool, error) {
	if subjectID == "" {
		return false, apperr.ErrUnauthorized
	}
	if r.allowList[normalizeEmail(email)] {
		return true, nil
	}
	p, err := r.profiles.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return p.IsAdmin, nil
}

// Resolve builds the Requester for a verified identity, creating the user's
// profile on first sight.
func (r *AdminResolver) Resolve(ctx context.Context, id *Identity) (Requester, error) {
	if id == nil || id.SubjectID == "" {
		return Requester{}, apperr.ErrUnauthorized
	}
	p, err := r.profiles.Ensure(ctx, id.SubjectID, id.Email)
	if err != nil {
		return Requester{}, err
	}
	email := id.Email
	if email == "" {
		email = p.Email
	}
	isAdmin, err := r.CheckCurrentAdminStatus(ctx, id.SubjectID, email)
	if err != nil {
		return Requester{}, err
	}
	return Requester{
		ID:        id.SubjectID,
		Email:     email,
		IsAdmin:   isAdmin,
		Suspended: p.Suspended,
	}, nil
}
