package database

import (
	"context"
	"fmt"

	"github.com/TuhinPramanik4/Civicsolve/internal/model"
	"gorm.io/gorm"
)

// ListFilter selects a page of reports, newest first
type ListFilter struct {
	Category string
	Offset   int
	Limit    int
}

// ReportStore writes reports to the issues table
type ReportStore struct {
	db *gorm.DB
}

func NewReportStore(db *gorm.DB) *ReportStore {
	return &ReportStore{db: db}
}

func (s *ReportStore) Insert(ctx context.Context, issue *model.Issue) error {
	if err := s.db.WithContext(ctx).Create(issue).Error; err != nil {
		return fmt.Errorf("failed to insert issue: %w", err)
	}
	return nil
}

func (s *ReportStore) List(ctx context.Context, filter ListFilter) ([]model.Issue, error) {
	query := s.db.WithContext(ctx).Model(&model.Issue{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	var issues []model.Issue
	err := query.Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&issues).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	return issues, nil
}
