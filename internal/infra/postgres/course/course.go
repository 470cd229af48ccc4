package infra_postgres_course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vpetrakov/learnhub/core/internal/model"
)

type Repository struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Store(ctx context.Context, c model.Course) error {
	courseDB, err := FromDomain(c)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO courses (id, title, description, price, estimated_price, tags, level,
			thumbnail_key, thumbnail_url, benefits, sections, rating, purchased, created_at)
		VALUES (:id, :title, :description, :price, :estimated_price, :tags, :level,
			:thumbnail_key, :thumbnail_url, :benefits, :sections, :rating, :purchased, :created_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, courseDB); err != nil {
		return fmt.Errorf("failed to store course: %w", err)
	}

	return nil
}

func (r *Repository) LoadByID(ctx context.Context, ID uuid.UUID) (model.Course, error) {
	query := `
		SELECT id, title, description, price, estimated_price, tags, level,
			thumbnail_key, thumbnail_url, benefits, sections, rating, purchased, created_at
		FROM courses
		WHERE id = $1
	`

	var courseDB CourseDB
	err := r.db.GetContext(ctx, &courseDB, query, ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Course{}, model.ErrCourseNotFound
		}
		return model.Course{}, fmt.Errorf("failed to load course by id: %w", err)
	}

	return courseDB.ToDomain()
}

func (r *Repository) Load(ctx context.Context) ([]*model.Course, error) {
	query := `
		SELECT id, title, description, price, estimated_price, tags, level,
			thumbnail_key, thumbnail_url, benefits, sections, rating, purchased, created_at
		FROM courses
		ORDER BY created_at DESC
	`

	var coursesDB []CourseDB
	if err := r.db.SelectContext(ctx, &coursesDB, query); err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}

	courses := make([]*model.Course, len(coursesDB))
	for i, courseDB := range coursesDB {
		domain, err := courseDB.ToDomain()
		if err != nil {
			return nil, err
		}
		courses[i] = &domain
	}

	return courses, nil
}

func (r *Repository) Update(ctx context.Context, c model.Course) error {
	courseDB, err := FromDomain(c)
	if err != nil {
		return err
	}

	query := `
		UPDATE courses SET
			title = :title,
			description = :description,
			price = :price,
			estimated_price = :estimated_price,
			tags = :tags,
			level = :level,
			thumbnail_key = :thumbnail_key,
			thumbnail_url = :thumbnail_url,
			benefits = :benefits,
			sections = :sections,
			rating = :rating,
			purchased = :purchased
		WHERE id = :id
	`

	res, err := r.db.NamedExecContext(ctx, query, courseDB)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return model.ErrCourseNotFound
	}

	return nil
}

func (r *Repository) DeleteByID(ctx context.Context, ID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, ID)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return model.ErrCourseNotFound
	}

	return nil
}
