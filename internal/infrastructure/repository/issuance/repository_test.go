package issuance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/infrastructure/database/entities"
	"github.com/janhq/cms-media/internal/utils/issuanceid"
)

var _ credential.AuditLog = (*Repository)(nil)

type capturedSQL struct {
	sql  string
	vars []any
}

// newDryRunDB builds statements against the postgres dialect without a server.
func newDryRunDB(t *testing.T) (*gorm.DB, *capturedSQL) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=cms password=cms dbname=cms_media sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	captured := &capturedSQL{}
	capture := func(db *gorm.DB) {
		captured.sql = db.Statement.SQL.String()
		captured.vars = db.Statement.Vars
	}
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:capture_create", capture))
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture_query", capture))
	return db, captured
}

func TestRepository_RecordIssuance(t *testing.T) {
	db, captured := newDryRunDB(t)
	repo := NewRepository(db)

	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	err := repo.RecordIssuance(context.Background(), credential.Issuance{
		Principal:   "a1b2c3d4",
		Bucket:      "cms-assets",
		AccessKeyID: "ASIA...1234",
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(time.Hour),
	})
	require.NoError(t, err)

	assert.Contains(t, captured.sql, `INSERT INTO "credential_issuances"`)
	require.NotEmpty(t, captured.vars)
	id, ok := captured.vars[0].(string)
	require.True(t, ok)
	assert.True(t, issuanceid.IsValid(id))
	assert.Contains(t, captured.vars, "cms-assets")
	assert.Contains(t, captured.vars, "ASIA...1234")
}

func TestRepository_RecordIssuanceKeepsID(t *testing.T) {
	db, captured := newDryRunDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.RecordIssuance(context.Background(), credential.Issuance{
		ID:          "iss_01HQ8Z6W5J9Y3V4X2T1R0P9N8M",
		Bucket:      "cms-assets",
		AccessKeyID: "ASIA...1234",
		IssuedAt:    time.Now(),
		ExpiresAt:   time.Now().Add(time.Hour),
	}))
	assert.Equal(t, "iss_01HQ8Z6W5J9Y3V4X2T1R0P9N8M", captured.vars[0])
}

func TestRepository_ListClampsLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "default", limit: 0, want: DefaultListLimit},
		{name: "explicit", limit: 10, want: 10},
		{name: "clamped", limit: 10_000, want: MaxListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, captured := newDryRunDB(t)
			repo := NewRepository(db)

			items, err := repo.List(context.Background(), tt.limit)
			require.NoError(t, err)
			assert.Empty(t, items)

			assert.Contains(t, captured.sql, `FROM "credential_issuances"`)
			assert.Contains(t, captured.sql, "ORDER BY issued_at DESC")
			assert.Contains(t, captured.sql, "LIMIT")
			assert.Contains(t, captured.vars, tt.want)
		})
	}
}

func TestEntityMapping(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	issuance := credential.Issuance{
		ID:          "iss_01HQ8Z6W5J9Y3V4X2T1R0P9N8M",
		Principal:   "a1b2c3d4",
		Bucket:      "cms-assets",
		KeyPrefix:   "users/a1b2c3d4",
		AccessKeyID: "ASIA...1234",
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(time.Hour),
	}

	entity := toEntity(issuance)
	assert.Equal(t, entities.CredentialIssuance{
		ID:          issuance.ID,
		Principal:   issuance.Principal,
		Bucket:      issuance.Bucket,
		KeyPrefix:   issuance.KeyPrefix,
		AccessKeyID: issuance.AccessKeyID,
		IssuedAt:    issuance.IssuedAt,
		ExpiresAt:   issuance.ExpiresAt,
	}, entity)
	assert.Equal(t, issuance, fromEntity(entity))
}
