package actions

import (
	"context"

	"jobwarden/internal/core"
)

type Repository struct {
	DB core.DB
}

func (r *Repository) Insert(ctx context.Context, actions ...core.ModerationActionModel) error {
	return r.DB.Model(&core.ModerationActionModel{}).WithContext(ctx).Create(&actions).Error
}
