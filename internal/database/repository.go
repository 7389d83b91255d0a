package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// RepositoryInterface is the storage contract shared by the gorm-backed
// repository and the in-memory mock.
type RepositoryInterface interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id uint) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)

	CreateOrder(ctx context.Context, order *Order) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrdersByUser(ctx context.Context, userID uint) ([]Order, error)
}

// Repository is the gorm-backed implementation over Postgres.
type Repository struct {
	db *gorm.DB
}

// Connect opens a Postgres connection, runs migrations and seeds demo users
// when the users table is empty.
func Connect(dsn string) (*Repository, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.AutoMigrate(&User{}, &Order{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.seed(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *Repository) seed() error {
	var count int64
	if err := r.db.Model(&User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	users := SeedUsers()
	if err := r.db.Create(&users).Error; err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	return nil
}

func (r *Repository) CreateUser(ctx context.Context, user *User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *Repository) GetUser(ctx context.Context, id uint) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *Repository) CreateOrder(ctx context.Context, order *Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *Repository) GetOrder(ctx context.Context, id string) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) ListOrdersByUser(ctx context.Context, userID uint) ([]Order, error) {
	var orders []Order
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Ensure Repository implements RepositoryInterface.
var _ RepositoryInterface = (*Repository)(nil)
