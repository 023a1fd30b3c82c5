package history

import (
	"context"

	"blackjack-service/internal/model"

	"gorm.io/gorm"
)

// Service persists settled rounds and serves the round-log queries.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type ListResult struct {
	Total int64               `json:"total"`
	Items []model.RoundRecord `json:"items"`
}

func (s *Service) RecordRound(ctx context.Context, rec *model.RoundRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

// List returns round records newest first, paged.
func (s *Service) List(ctx context.Context, page, pageSize int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.RoundRecord{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var items []model.RoundRecord
	err := s.db.WithContext(ctx).
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &ListResult{Total: total, Items: items}, nil
}
