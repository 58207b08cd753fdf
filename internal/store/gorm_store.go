// Package store provides Postgres-backed persistence for the cart and
// session repositories, for hosted deployments where the data directory is
// not durable.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jawad226/EchoMart-sub000/pkg/domain"
)

const stateRowKey = "default"

// GormStore owns the DB handle shared by the repositories.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&CartStateModel{}, &SessionStateModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CartRepository returns the cart persistence backed by this store.
func (s *GormStore) CartRepository() *GormCartRepository {
	return &GormCartRepository{db: s.db}
}

// SessionRepository returns the session persistence backed by this store.
func (s *GormStore) SessionRepository() *GormSessionRepository {
	return &GormSessionRepository{db: s.db}
}

// GormCartRepository implements cart.Repository over Postgres.
type GormCartRepository struct {
	db *gorm.DB
}

func (r *GormCartRepository) Load() ([]domain.LineItem, error) {
	var row CartStateModel
	err := r.db.First(&row, "key = ?", stateRowKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart row: %w", err)
	}
	var items []domain.LineItem
	if err := json.Unmarshal(row.Items, &items); err != nil {
		return nil, fmt.Errorf("parse cart row: %w", err)
	}
	return items, nil
}

func (r *GormCartRepository) Save(items []domain.LineItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	row := CartStateModel{Key: stateRowKey, Items: data, UpdatedAt: time.Now().UTC()}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"items", "updated_at"}),
	}).Create(&row).Error
}

func (r *GormCartRepository) Clear() error {
	return r.db.Delete(&CartStateModel{}, "key = ?", stateRowKey).Error
}

// GormSessionRepository implements session.Repository over Postgres.
type GormSessionRepository struct {
	db *gorm.DB
}

func (r *GormSessionRepository) Load() (*domain.Session, error) {
	var row SessionStateModel
	err := r.db.First(&row, "key = ?", stateRowKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session row: %w", err)
	}
	var user domain.User
	if err := json.Unmarshal(row.User, &user); err != nil {
		return nil, fmt.Errorf("parse session row: %w", err)
	}
	return &domain.Session{Token: row.Token, User: user}, nil
}

func (r *GormSessionRepository) Save(sess domain.Session) error {
	userData, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}
	row := SessionStateModel{
		Key:       stateRowKey,
		Token:     sess.Token,
		User:      userData,
		UpdatedAt: time.Now().UTC(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "user", "updated_at"}),
	}).Create(&row).Error
}

func (r *GormSessionRepository) Clear() error {
	return r.db.Delete(&SessionStateModel{}, "key = ?", stateRowKey).Error
}
