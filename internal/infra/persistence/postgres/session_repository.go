package postgres

import (
	"context"

	"puffsocial/internal/domain/entity"
	domainerrors "puffsocial/internal/domain/errors"
	"puffsocial/internal/domain/repository"
	"puffsocial/internal/infra/persistence/model"

	"gorm.io/gorm"
)

// sessionRepository implements the repository.SessionRepository interface.
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository is the constructor for sessionRepository.
func NewSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &sessionRepository{
		db: db,
	}
}

// CreateSession records an issued session token with its origin metadata.
func (repo *sessionRepository) CreateSession(ctx context.Context, session *entity.Session) error {
	sessionM := &model.SessionModel{
		Token:        session.Token,
		UserID:       session.UserID,
		AccountID:    session.AccountID,
		ConnectionID: session.ConnectionID,
		IP:           session.IP,
		UserAgent:    session.UserAgent,
	}

	if err := repo.db.WithContext(ctx).Create(sessionM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create session record")
	}

	session.CreatedAt = sessionM.CreatedAt

	return nil
}
