package postgres

import (
	"context"
	"strings"

	"puffsocial/internal/domain/entity"
	domainerrors "puffsocial/internal/domain/errors"
	"puffsocial/internal/domain/repository"
	"puffsocial/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// accountRepository implements the repository.AccountRepository interface.
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository is the constructor for accountRepository.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{
		db: db,
	}
}

// CreateAccount persists a new local account. The email is lowercased before
// the write so the unique index compares a canonical form.
func (repo *accountRepository) CreateAccount(ctx context.Context, account *entity.Account) error {
	account.Email = strings.ToLower(account.Email)
	accountM := fromAccountDomain(account)

	if err := repo.db.WithContext(ctx).Create(accountM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateAccount
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create account")
	}

	account.CreatedAt = accountM.CreatedAt

	return nil
}

// FindAccountByEmail retrieves an account by lowercased email with its user.
func (repo *accountRepository) FindAccountByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var accountM model.AccountModel

	if err := repo.db.WithContext(ctx).
		Preload("User").
		Where("email = ?", strings.ToLower(email)).
		First(&accountM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, errors.Wrap(err, "failed to find account by email")
	}

	return toAccountDomain(&accountM), nil
}

// --- Mapper Functions ---

func toAccountDomain(data *model.AccountModel) *entity.Account {
	if data == nil {
		return nil
	}

	return &entity.Account{
		ID:        data.ID,
		Email:     data.Email,
		Password:  data.Password,
		UserID:    data.UserID,
		CreatedAt: data.CreatedAt,
		User:      toUserDomain(data.User),
	}
}

func fromAccountDomain(data *entity.Account) *model.AccountModel {
	if data == nil {
		return nil
	}

	return &model.AccountModel{
		ID:        data.ID,
		Email:     data.Email,
		Password:  data.Password,
		UserID:    data.UserID,
		CreatedAt: data.CreatedAt,
	}
}
