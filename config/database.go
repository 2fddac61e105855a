package config

import (
	"fmt"
	"strings"
	model "tally/repository"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var enumQueries = []string{
	`CREATE TYPE tally.participant_type AS ENUM ('individual', 'group')`,
	`CREATE TYPE tally.event_status AS ENUM ('upcoming', 'ongoing', 'completed')`,
	`CREATE TYPE tally.tabular_type AS ENUM ('scoring', 'ranking')`,
}

func InitDB(host, port, user, password, dbName string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, dbName)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   "tally.",
			SingularTable: false,
		},
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	x := db.Exec(`CREATE SCHEMA IF NOT EXISTS tally`)
	if x.Error != nil {
		return nil, x.Error
	}
	for _, query := range enumQueries {
		x := db.Exec(query)
		if x.Error != nil {
			if strings.Contains(x.Error.Error(), "already exists") {
				continue
			}
			return nil, x.Error
		}
	}

	err = db.AutoMigrate(
		&model.Event{},
		&model.Category{},
		&model.Criterion{},
		&model.Participant{},
		&model.Judge{},
		&model.Score{},
		&model.Ranking{},
	)

	if err != nil {
		return nil, err
	}
	return db, nil
}
