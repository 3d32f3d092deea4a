package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/auction-chess-backend/internal/engine"
)

var ErrNotFound = errors.New("game not found")
var ErrVersionConflict = errors.New("game version conflict")

// GameRecord is one game, overwritten in place as it progresses. Version
// matches the lobby's snapshot version.
type GameRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code      string    `gorm:"size:16;uniqueIndex;not null"`
	Version   int       `gorm:"not null"`
	State     string    `gorm:"type:jsonb;not null"`
	Finished  bool      `gorm:"not null;default:false;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (GameRecord) TableName() string { return "games" }

func newRecord(code string, version int, s engine.State) (GameRecord, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return GameRecord{}, fmt.Errorf("encode state: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return GameRecord{}, err
	}
	return GameRecord{
		ID:       id,
		Code:     code,
		Version:  version,
		State:    string(data),
		Finished: s.Terminal(),
	}, nil
}

// Decode returns the stored game state.
func (r GameRecord) Decode() (engine.State, error) {
	var s engine.State
	if err := json.Unmarshal([]byte(r.State), &s); err != nil {
		return engine.State{}, fmt.Errorf("decode game %s: %w", r.Code, err)
	}
	return s, nil
}

type Store struct {
	db   *gorm.DB
	pool *pgxpool.Pool
	log  *zap.Logger
}

// Open connects to Postgres through a pgx pool and migrates the schema.
func Open(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&GameRecord{}); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("store ready")
	return &Store{db: db, pool: pool, log: log}, nil
}

func (s *Store) Close() error {
	var err error
	if sqlDB, dbErr := s.db.DB(); dbErr != nil {
		err = multierr.Append(err, dbErr)
	} else {
		err = multierr.Append(err, sqlDB.Close())
	}
	s.pool.Close()
	return err
}

// Save writes version of the game at code. Version 0 creates the record;
// any later version only replaces version-1, so a stale writer gets
// ErrVersionConflict instead of overwriting newer state.
func (s *Store) Save(ctx context.Context, code string, version int, state engine.State) error {
	rec, err := newRecord(code, version, state)
	if err != nil {
		return err
	}

	if version == 0 {
		if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s already exists", ErrVersionConflict, code)
			}
			return fmt.Errorf("create game %s: %w", code, err)
		}
		return nil
	}

	res := s.db.WithContext(ctx).Model(&GameRecord{}).
		Where("code = ? AND version = ?", code, version-1).
		Updates(map[string]any{
			"version":  rec.Version,
			"state":    rec.State,
			"finished": rec.Finished,
		})
	if res.Error != nil {
		return fmt.Errorf("update game %s: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s at version %d", ErrVersionConflict, code, version)
	}
	s.log.Debug("game saved", zap.String("code", code), zap.Int("version", version))
	return nil
}

func (s *Store) Load(ctx context.Context, code string) (GameRecord, error) {
	var rec GameRecord
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return GameRecord{}, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	if err != nil {
		return GameRecord{}, fmt.Errorf("load game %s: %w", code, err)
	}
	return rec, nil
}

// Unfinished returns every game still in progress, oldest first.
func (s *Store) Unfinished(ctx context.Context) ([]GameRecord, error) {
	var recs []GameRecord
	err := s.db.WithContext(ctx).Where("finished = ?", false).Order("created_at").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list unfinished games: %w", err)
	}
	return recs, nil
}
