package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"github.com/livevlm/vlm-relay/internal/config"
	"github.com/livevlm/vlm-relay/internal/domain"
)

// SchemaVersion describes the current database schema version. It must be incremented if a manual migration is needed.
var SchemaVersion uint64 = 1

// SysStat stores the current database schema version and the timestamp when it was applied.
type SysStat struct {
	MigratedAt    time.Time `gorm:"column:migrated_at"`
	SchemaVersion uint64    `gorm:"primaryKey,column:schema_version"`
}

// GormLogger is a custom logger for Gorm, making it use slog
type GormLogger struct {
	SlowThreshold           time.Duration
	SourceField             string
	IgnoreErrRecordNotFound bool
	Debug                   bool
	Silent                  bool

	prefix string
}

func NewLogger(slowThreshold time.Duration, debug bool) *GormLogger {
	return &GormLogger{
		SlowThreshold:           slowThreshold,
		Debug:                   debug,
		IgnoreErrRecordNotFound: true,
		Silent:                  false,
		SourceField:             "src",
		prefix:                  "GORM-SQL: ",
	}
}

func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	if level == logger.Silent {
		l.Silent = true
	} else {
		l.Silent = false
	}
	return l
}

func (l *GormLogger) Info(ctx context.Context, s string, args ...any) {
	if l.Silent {
		return
	}
	slog.InfoContext(ctx, l.prefix+s, args...)
}

func (l *GormLogger) Warn(ctx context.Context, s string, args ...any) {
	if l.Silent {
		return
	}
	slog.WarnContext(ctx, l.prefix+s, args...)
}

func (l *GormLogger) Error(ctx context.Context, s string, args ...any) {
	if l.Silent {
		return
	}
	slog.ErrorContext(ctx, l.prefix+s, args...)
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	attrs := []any{
		"rows", rows,
		"duration", elapsed,
	}

	if l.SourceField != "" {
		attrs = append(attrs, l.SourceField, utils.FileWithLineNum())
	}

	if err != nil && !(errors.Is(err, gorm.ErrRecordNotFound) && l.IgnoreErrRecordNotFound) {
		attrs = append(attrs, "error", err)
		slog.ErrorContext(ctx, l.prefix+sql, attrs...)
		return
	}

	if l.SlowThreshold != 0 && elapsed > l.SlowThreshold {
		slog.WarnContext(ctx, l.prefix+sql, attrs...)
		return
	}

	if l.Debug {
		slog.DebugContext(ctx, l.prefix+sql, attrs...)
	}
}

// NewDatabase creates a new database connection and returns a Gorm database instance.
func NewDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var gormDb *gorm.DB
	var err error

	switch cfg.Type {
	case config.DatabaseMySQL:
		gormDb, err = gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
			Logger: NewLogger(cfg.SlowQueryThreshold, cfg.Debug),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w", err)
		}

		sqlDB, _ := gormDb.DB()
		sqlDB.SetConnMaxLifetime(time.Minute * 5)
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetMaxOpenConns(10)
		err = sqlDB.Ping() // This DOES open a connection if necessary. This makes sure the database is accessible
		if err != nil {
			return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
		}
	case config.DatabaseMsSQL:
		gormDb, err = gorm.Open(sqlserver.Open(cfg.DSN), &gorm.Config{
			Logger: NewLogger(cfg.SlowQueryThreshold, cfg.Debug),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlserver database: %w", err)
		}
	case config.DatabasePostgres:
		gormDb, err = gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
			Logger: NewLogger(cfg.SlowQueryThreshold, cfg.Debug),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open Postgres database: %w", err)
		}
	case config.DatabaseSQLite:
		if _, err = os.Stat(filepath.Dir(cfg.DSN)); os.IsNotExist(err) {
			if err = os.MkdirAll(filepath.Dir(cfg.DSN), 0700); err != nil {
				return nil, fmt.Errorf("failed to create database base directory: %w", err)
			}
		}
		gormDb, err = gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
			Logger:                                   NewLogger(cfg.SlowQueryThreshold, cfg.Debug),
			DisableForeignKeyConstraintWhenMigrating: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		sqlDB, _ := gormDb.DB()
		sqlDB.SetMaxOpenConns(1)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	return gormDb, nil
}

// SqlRepo is a SQL database repository implementation for the event and delivery journal.
// Currently, it supports MySQL, SQLite, Microsoft SQL and Postgresql database systems.
type SqlRepo struct {
	db *gorm.DB
}

// NewSqlRepository creates a new SqlRepo instance.
func NewSqlRepository(db *gorm.DB) (*SqlRepo, error) {
	repo := &SqlRepo{
		db: db,
	}

	if err := repo.migrate(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return repo, nil
}

func (r *SqlRepo) migrate() error {
	slog.Debug("running migration: sys-stat", "result", r.db.AutoMigrate(&SysStat{}))
	slog.Debug("running migration: analysis event", "result", r.db.AutoMigrate(&domain.AnalysisEvent{}))
	slog.Debug("running migration: delivery", "result", r.db.AutoMigrate(&domain.Delivery{}))

	existingSysStat := SysStat{}
	r.db.Where("schema_version = ?", SchemaVersion).First(&existingSysStat)
	if existingSysStat.SchemaVersion == 0 {
		sysStat := SysStat{
			MigratedAt:    time.Now(),
			SchemaVersion: SchemaVersion,
		}
		if err := r.db.Create(&sysStat).Error; err != nil {
			return fmt.Errorf("failed to write sysstat entry for schema version %d: %w", SchemaVersion, err)
		}
		slog.Debug("sys-stat entry written", "schema_version", SchemaVersion)
	}

	return nil
}

// Ping checks the database connection.
func (r *SqlRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// region events

// SaveEvent persists the given analysis event in the journal.
func (r *SqlRepo) SaveEvent(ctx context.Context, event *domain.AnalysisEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to save event %s: %w", event.Id, err)
	}

	return nil
}

// GetEvent returns the event with the given id.
// If no event is found, an error domain.ErrNotFound is returned.
func (r *SqlRepo) GetEvent(ctx context.Context, id domain.EventIdentifier) (*domain.AnalysisEvent, error) {
	var event domain.AnalysisEvent

	err := r.db.WithContext(ctx).Where("event_id = ?", id).First(&event).Error

	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &event, nil
}

// GetRecentEvents returns the newest events, newest first. If stream is not
// empty, only events of that stream are returned.
func (r *SqlRepo) GetRecentEvents(ctx context.Context, stream domain.StreamIdentifier, limit int) (
	[]domain.AnalysisEvent,
	error,
) {
	var events []domain.AnalysisEvent

	tx := r.db.WithContext(ctx).Order("id desc")
	if stream != "" {
		tx = tx.Where("stream = ?", stream)
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	if err := tx.Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}

// GetEventCounts returns the number of journaled events per stream.
func (r *SqlRepo) GetEventCounts(ctx context.Context) (map[domain.StreamIdentifier]int64, error) {
	var rows []struct {
		Stream domain.StreamIdentifier
		Count  int64
	}

	err := r.db.WithContext(ctx).
		Model(&domain.AnalysisEvent{}).
		Select("stream, count(*) as count").
		Group("stream").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.StreamIdentifier]int64, len(rows))
	for _, row := range rows {
		counts[row.Stream] = row.Count
	}

	return counts, nil
}

// PruneEvents removes all but the newest keep events from the journal and
// returns the number of removed rows. A keep value of 0 disables pruning.
func (r *SqlRepo) PruneEvents(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	newest := r.db.Model(&domain.AnalysisEvent{}).Select("id").Order("id desc").Limit(keep)
	tx := r.db.WithContext(ctx).Where("id NOT IN (?)", newest).Delete(&domain.AnalysisEvent{})
	if tx.Error != nil {
		return 0, tx.Error
	}

	return tx.RowsAffected, nil
}

// endregion events

// region deliveries

// SaveDelivery persists the given delivery record. New records are created,
// existing ones are updated.
func (r *SqlRepo) SaveDelivery(ctx context.Context, delivery *domain.Delivery) error {
	if err := r.db.WithContext(ctx).Save(delivery).Error; err != nil {
		return fmt.Errorf("failed to save delivery for event %s: %w", delivery.EventId, err)
	}

	return nil
}

// GetDelivery returns the delivery with the given id.
// If no delivery is found, an error domain.ErrNotFound is returned.
func (r *SqlRepo) GetDelivery(ctx context.Context, id uint64) (*domain.Delivery, error) {
	var delivery domain.Delivery

	err := r.db.WithContext(ctx).First(&delivery, id).Error

	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &delivery, nil
}

// GetDeliveries returns delivery records, newest first. Stream and status
// filters are optional, a zero value disables them.
func (r *SqlRepo) GetDeliveries(
	ctx context.Context,
	stream domain.StreamIdentifier,
	status domain.DeliveryStatus,
	limit int,
) ([]domain.Delivery, error) {
	var deliveries []domain.Delivery

	tx := r.db.WithContext(ctx).Order("id desc")
	if stream != "" {
		tx = tx.Where("stream = ?", stream)
	}
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	if err := tx.Find(&deliveries).Error; err != nil {
		return nil, err
	}

	return deliveries, nil
}

// GetDueDeliveries returns deliveries that are waiting for a retry whose
// backoff delay has expired, oldest due time first.
func (r *SqlRepo) GetDueDeliveries(ctx context.Context, dueTime time.Time, limit int) ([]domain.Delivery, error) {
	var deliveries []domain.Delivery

	tx := r.db.WithContext(ctx).
		Where("status = ?", domain.DeliveryStatusRetrying).
		Where("next_attempt_at <= ?", dueTime).
		Order("next_attempt_at asc")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	if err := tx.Find(&deliveries).Error; err != nil {
		return nil, err
	}

	return deliveries, nil
}

// GetDeliveryCounts returns the number of delivery records per status.
func (r *SqlRepo) GetDeliveryCounts(ctx context.Context) (map[domain.DeliveryStatus]int64, error) {
	var rows []struct {
		Status domain.DeliveryStatus
		Count  int64
	}

	err := r.db.WithContext(ctx).
		Model(&domain.Delivery{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.DeliveryStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}

// endregion deliveries
