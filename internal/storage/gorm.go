package storage

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/WasatchCloudBase/livetrack/pkg/core"
)

// opener connects to a specific database flavor.
type opener func() (*gorm.DB, error)

// GormBackend archives track points through gorm. The same backend
// serves SQLite and Postgres; only the opener differs.
type GormBackend struct {
	open opener
	db   *gorm.DB
}

// NewGormBackend creates a gorm-backed archive using the given opener.
func NewGormBackend(open opener) *GormBackend {
	return &GormBackend{open: open}
}

// openSqlite returns an opener for a local SQLite file.
func openSqlite(path string) opener {
	return func() (*gorm.DB, error) {
		if path == "" {
			path = "livetrack.db"
		}
		db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite db: %w", err)
		}
		return db, nil
	}
}

// openPostgres connects using the db.* configuration keys.
func openPostgres() (*gorm.DB, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		viper.GetString("db.host"),
		viper.GetString("db.port"),
		viper.GetString("db.username"),
		viper.GetString("db.password"),
		viper.GetString("db.database"),
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres db: %w", err)
	}
	return db, nil
}

// Init connects and migrates the schema.
func (b *GormBackend) Init() error {
	db, err := b.open()
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}

	if err := db.AutoMigrate(DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	b.db = db
	return nil
}

// Close releases the underlying connection pool.
func (b *GormBackend) Close() error {
	if b.db == nil {
		return nil
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveTrackPoints archives a batch of points. Unarchivable points
// (invalid coordinates) are skipped rather than failing the batch.
func (b *GormBackend) SaveTrackPoints(points []core.TrackPoint) error {
	if len(points) == 0 {
		return nil
	}

	records := make([]TrackPointRecord, 0, len(points))
	for _, p := range points {
		r, err := recordFromPoint(p)
		if err != nil {
			continue
		}
		records = append(records, r)
	}
	if len(records) == 0 {
		return nil
	}

	if err := b.db.Create(&records).Error; err != nil {
		return fmt.Errorf("failed to save track points: %w", err)
	}
	return nil
}

// LoadTrackPoints returns archived points recorded on the given UTC
// calendar day, ascending by timestamp.
func (b *GormBackend) LoadTrackPoints(day time.Time) ([]core.TrackPoint, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	var records []TrackPointRecord
	err := b.db.
		Where("time >= ? AND time < ?", start, end).
		Order("time asc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load track points: %w", err)
	}

	points := make([]core.TrackPoint, 0, len(records))
	for _, r := range records {
		points = append(points, pointFromRecord(r))
	}
	return points, nil
}

// TrackerNames returns the distinct tracker names in the archive.
func (b *GormBackend) TrackerNames() ([]string, error) {
	var names []string
	err := b.db.
		Model(&TrackPointRecord{}).
		Distinct("tracker_name").
		Order("tracker_name asc").
		Pluck("tracker_name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tracker names: %w", err)
	}
	return names, nil
}
