package repository

import (
	"context"
	"time"

	"github.com/shinyyama/campus-market/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserProfileRepository interface {
	// Ensure returns the profile for uid, creating it on first sight and
	// refreshing a changed email.
	Ensure(ctx context.Context, uid, email string) (*model.UserProfile, error)
	FindByID(ctx context.Context, uid string) (*model.UserProfile, error)
	SetAdmin(ctx context.Context, uid string, admin bool) error
	SetSuspended(ctx context.Context, uid string, suspended bool) error
}

type userProfileRepository struct {
	db *gorm.DB
}

func NewUserProfileRepository(db *gorm.DB) UserProfileRepository {
	return &userProfileRepository{db: db}
}

func (r *userProfileRepository) Ensure(ctx context.Context, uid, email string) (*model.UserProfile, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	p := model.UserProfile{UID: uid, Email: email}
	q := r.db.WithContext(ctx)
	if email != "" {
		q = q.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "updated_at"}),
		})
	} else {
		q = q.Clauses(clause.OnConflict{DoNothing: true})
	}
	if err := q.Create(&p).Error; err != nil {
		return nil, translate("ensure profile", err)
	}
	return r.FindByID(ctx, uid)
}

func (r *userProfileRepository) FindByID(ctx context.Context, uid string) (*model.UserProfile, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var p model.UserProfile
	if err := r.db.WithContext(ctx).First(&p, "uid = ?", uid).Error; err != nil {
		return nil, translate("find profile", err)
	}
	return &p, nil
}

func (r *userProfileRepository) SetAdmin(ctx context.Context, uid string, admin bool) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.update(ctx, "set admin", uid, map[string]interface{}{"is_admin": admin})
}

func (r *userProfileRepository) SetSuspended(ctx context.Context, uid string, suspended bool) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	fields := map[string]interface{}{"suspended": suspended, "suspended_at": nil}
	if suspended {
		fields["suspended_at"] = time.Now()
	}
	return r.update(ctx, "set suspended", uid, fields)
}

func (r *userProfileRepository) update(ctx context.Context, op, uid string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&model.UserProfile{}).Where("uid = ?", uid).Updates(fields)
	if res.Error != nil {
		return translate(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return translate(op, gorm.ErrRecordNotFound)
	}
	return nil
}
