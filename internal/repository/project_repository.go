package repository

import (
	"context"

	"taskboard/internal/domain/tasks"

	"gorm.io/gorm"
)

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, p *tasks.Project) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *projectRepository) Get(ctx context.Context, userID, id string) (*tasks.Project, error) {
	var p tasks.Project
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *projectRepository) List(ctx context.Context, userID string) ([]tasks.Project, error) {
	var out []tasks.Project
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Limit(1000).Find(&out).Error
	return out, err
}

func (r *projectRepository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&tasks.Project{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *projectRepository) Count(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&tasks.Project{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}
