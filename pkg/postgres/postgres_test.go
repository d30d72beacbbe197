package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://resq:pw@db:5432/resq?sslmode=disable", "pgx5://resq:pw@db:5432/resq?sslmode=disable"},
		{"postgresql://resq@db/resq", "pgx5://resq@db/resq"},
		{"pgx5://resq@db/resq", "pgx5://resq@db/resq"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MigrationURL(tt.in))
	}
}
