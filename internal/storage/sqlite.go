package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DBClient wraps the sqlite lookup history. Every completed pipeline run is
// persisted as a Lookup plus its ranked CandidateRecord rows, keyed by the
// normalized source URL, so a repeat request is answered from here.
type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type Lookup struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	URLKey    string `gorm:"uniqueIndex:idx_lookup_url" json:"url_key"`
	SourceURL string `json:"source_url"`
	Title     string `json:"title"`
	Uploader  string `json:"uploader"`
	Duration  float64 `json:"duration"`

	Matched     bool   `json:"matched"`
	Reason      string `json:"reason"`
	BestVideoID string `json:"best_video_id"`
	TookMs      int64  `json:"took_ms"`

	Candidates []CandidateRecord `gorm:"foreignKey:LookupID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time
}

type CandidateRecord struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	LookupID string `gorm:"type:varchar(36);index:idx_candidate_lookup" json:"lookup_id"`
	Rank     int    `json:"rank"`

	VideoID  string  `gorm:"index:idx_candidate_video" json:"video_id"`
	URL      string  `json:"url"`
	Title    string  `json:"title"`
	Channel  string  `json:"channel"`
	Duration float64 `json:"duration"`

	FrameMedian    float64 `json:"frame_median"`
	FrameMatchFrac float64 `json:"frame_match_frac"`
	FrameScore     float64 `json:"frame_score"`
	AudioScore     float64 `json:"audio_score"`
	TitleBonus     float64 `json:"title_bonus"`
	FusedScore     float64 `json:"fused_score"`
	Reason         string  `json:"reason"`
}

func NewDBClient(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil && !os.IsExist(err) {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Lookup{}, &CandidateRecord{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// SaveLookup stores a completed run, replacing any previous record for the
// same URL key. Replacement keeps the history one row per source URL; the
// candidate rows go with the old lookup via the cascade.
func (c *DBClient) SaveLookup(l *Lookup) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	for i := range l.Candidates {
		l.Candidates[i].LookupID = l.ID
		l.Candidates[i].Rank = i + 1
	}

	return c.DB.Transaction(func(tx *gorm.DB) error {
		var old Lookup
		err := tx.Where("url_key = ?", l.URLKey).First(&old).Error
		if err == nil {
			if err := tx.Where("lookup_id = ?", old.ID).Delete(&CandidateRecord{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&old).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(l).Error
	})
}

// GetLookup returns the stored run for a URL key, candidates in rank order,
// or nil when the URL has never been looked up.
func (c *DBClient) GetLookup(urlKey string) (*Lookup, error) {
	var l Lookup
	err := c.DB.
		Preload("Candidates", func(db *gorm.DB) *gorm.DB { return db.Order("rank ASC") }).
		Where("url_key = ?", urlKey).
		First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListLookups returns the most recent runs, newest first.
func (c *DBClient) ListLookups(limit int) ([]Lookup, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []Lookup
	err := c.DB.Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// PurgeLookup removes the stored run for a URL key. Reports whether a row
// existed.
func (c *DBClient) PurgeLookup(urlKey string) (bool, error) {
	var l Lookup
	err := c.DB.Where("url_key = ?", urlKey).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lookup_id = ?", l.ID).Delete(&CandidateRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&l).Error
	})
	return err == nil, err
}
