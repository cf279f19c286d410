package postgres

import (
	"context"

	"puffsocial/internal/domain/entity"
	domainerrors "puffsocial/internal/domain/errors"
	"puffsocial/internal/domain/repository"
	"puffsocial/internal/infra/persistence/model"

	"gorm.io/gorm"
)

// feedbackRepository implements the repository.FeedbackRepository interface.
type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository is the constructor for feedbackRepository.
func NewFeedbackRepository(db *gorm.DB) repository.FeedbackRepository {
	return &feedbackRepository{
		db: db,
	}
}

// CreateFeedback persists a feedback message.
func (repo *feedbackRepository) CreateFeedback(ctx context.Context, feedback *entity.Feedback) error {
	feedbackM := &model.FeedbackModel{
		ID:      feedback.ID,
		Message: feedback.Message,
		IP:      feedback.IP,
	}

	if err := repo.db.WithContext(ctx).Create(feedbackM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create feedback")
	}

	feedback.CreatedAt = feedbackM.CreatedAt

	return nil
}
