package identity

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/shinyyama/campus-market/internal/apperr"
	"google.golang.org/api/option"
)

// Directory mirrors account-level admin changes into the identity provider.
type Directory interface {
	SetAdminClaim(ctx context.Context, uid string, admin bool) error
	SetDisabled(ctx context.Context, uid string, disabled bool) error
	LookupEmail(ctx context.Context, uid string) (string, error)
}

// NewFirebaseApp builds the app handed to every firebase-backed component.
// credentialsFile may be empty to use application default credentials.
func NewFirebaseApp(ctx context.Context, projectID, credentialsFile string) (*firebase.App, error) {
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is not set")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
}

type firebaseDirectory struct {
	client *auth.Client
}

func NewFirebaseDirectory(client *auth.Client) Directory {
	return &firebaseDirectory{client: client}
}

func (d *firebaseDirectory) SetAdminClaim(ctx context.Context, uid string, admin bool) error {
	user, err := d.client.GetUser(ctx, uid)
	if err != nil {
		return directoryErr("get user", err)
	}
	claims := map[string]interface{}{}
	for k, v := range user.CustomClaims {
		claims[k] = v
	}
	if admin {
		claims["admin"] = true
	} else {
		delete(claims, "admin")
	}
	return directoryErr("set custom claims", d.client.SetCustomUserClaims(ctx, uid, claims))
}

func (d *firebaseDirectory) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	_, err := d.client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Disabled(disabled))
	if err != nil {
		return directoryErr("update user", err)
	}
	if disabled {
		return directoryErr("revoke tokens", d.client.RevokeRefreshTokens(ctx, uid))
	}
	return nil
}

func (d *firebaseDirectory) LookupEmail(ctx context.Context, uid string) (string, error) {
	user, err := d.client.GetUser(ctx, uid)
	if err != nil {
		return "", directoryErr("get user", err)
	}
	return user.Email, nil
}

func directoryErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if auth.IsUserNotFound(err) {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return apperr.Dependency(op, err)
}
