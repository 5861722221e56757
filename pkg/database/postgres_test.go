package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/gradepro-api/pkg/config"
)

func TestPostgresDSN(t *testing.T) {
	dsn := postgresDSN(config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "gradepro",
		Password: `it's a secret`,
		Name:     "gradepro",
		SSLMode:  "disable",
	})
	assert.Equal(t, `host=localhost port=5432 user=gradepro password='it\'s a secret' dbname=gradepro sslmode=disable`, dsn)
}

func TestPostgresDSNSkipsEmptyValues(t *testing.T) {
	dsn := postgresDSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "postgres"})
	assert.Equal(t, "host=db port=5432 user=postgres", dsn)
}

func TestNewSQLiteInMemory(t *testing.T) {
	db, err := NewSQLite(":memory:")
	if !assert.NoError(t, err) {
		return
	}
	defer db.Close()
	var one int
	assert.NoError(t, db.Get(&one, "SELECT 1"))
	assert.Equal(t, 1, one)
}
