package repository

import (
	"context"
	"time"

	"taskboard/internal/domain/tasks"

	"gorm.io/gorm"
)

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, t *tasks.Task) error {
	return translate(r.db.WithContext(ctx).Create(t).Error)
}

func (r *taskRepository) Get(ctx context.Context, userID, id string) (*tasks.Task, error) {
	var t tasks.Task
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *taskRepository) List(ctx context.Context, userID string, f tasks.Filter) ([]tasks.Task, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if f.ProjectID != "" {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var out []tasks.Task
	err := q.Order("created_at DESC").Limit(1000).Find(&out).Error
	return out, err
}

func (r *taskRepository) Save(ctx context.Context, t *tasks.Task) error {
	return translate(r.db.WithContext(ctx).Save(t).Error)
}

func (r *taskRepository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&tasks.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *taskRepository) DeleteByProject(ctx context.Context, userID, projectID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&tasks.Task{})
	return res.RowsAffected, res.Error
}

func (r *taskRepository) ChildStartTimes(ctx context.Context, userID, parentID string) ([]time.Time, error) {
	var starts []time.Time
	err := r.db.WithContext(ctx).Model(&tasks.Task{}).
		Where("parent_task_id = ? AND user_id = ?", parentID, userID).
		Pluck("start_time", &starts).Error
	return starts, err
}

func (r *taskRepository) Stats(ctx context.Context, userID string, dayStart, dayEnd time.Time) (tasks.Stats, error) {
	var s tasks.Stats
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&tasks.Task{}).Where("user_id = ?", userID)
	}

	if err := base().Count(&s.TotalTasks).Error; err != nil {
		return s, err
	}
	if err := base().Where("status = ?", tasks.StatusCompleted).Count(&s.CompletedTasks).Error; err != nil {
		return s, err
	}
	if err := base().Where("status IN ?", []string{tasks.StatusTodo, tasks.StatusInProgress}).
		Count(&s.PendingTasks).Error; err != nil {
		return s, err
	}
	if err := base().Where("start_time >= ? AND start_time < ?", dayStart, dayEnd).
		Count(&s.TodayTasks).Error; err != nil {
		return s, err
	}
	return s, nil
}
