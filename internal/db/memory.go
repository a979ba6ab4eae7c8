package db

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenMemory opens a named in-memory sqlite database with foreign keys on and
// the schema applied. Each distinct name is an isolated database.
func OpenMemory(name string) (*gorm.DB, error) {
	dsn := "file:" + name + "?mode=memory&cache=shared&_foreign_keys=on"
	d, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: newGormLogger(nil, logger.Silent)})
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(d); err != nil {
		return nil, err
	}
	return d, nil
}
