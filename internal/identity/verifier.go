package identity

import (
	"context"
	"fmt"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/shinyyama/campus-market/internal/apperr"
)

// Verifier validates a caller's token. Invalid or expired tokens are
// apperr.ErrUnauthorized.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type firebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(client *auth.Client) Verifier {
	return &firebaseVerifier{client: client}
}

func (v *firebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.ErrUnauthorized
	}
	if v.client == nil {
		return nil, apperr.Dependency("verify token", fmt.Errorf("auth client not configured"))
	}
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		// Malformed, expired and revoked tokens all land here.
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	return identityFromClaims(tok.UID, tok.Claims), nil
}

func identityFromClaims(uid string, claims map[string]interface{}) *Identity {
	id := &Identity{SubjectID: uid}
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	if admin, ok := claims["admin"].(bool); ok {
		id.Admin = admin
	}
	return id
}
