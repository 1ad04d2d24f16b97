package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	tests := []struct {
		name, in, user, pass, want string
	}{
		{"driver form untouched", "u:p@tcp(db:3306)/cars?parseTime=true", "", "", "u:p@tcp(db:3306)/cars?parseTime=true"},
		{"url form", "mysql://u:p@db:3306/cars", "", "", "u:p@tcp(db:3306)/cars?charset=utf8mb4&parseTime=true"},
		{"jdbc prefix and overrides", "jdbc:mysql://x@db:3306/cars?charset=latin1", "app", "secret", "app:secret@tcp(db:3306)/cars?charset=latin1&parseTime=true"},
		{"no credentials", "mysql://db:3306/cars", "", "", "tcp(db:3306)/cars?charset=utf8mb4&parseTime=true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeMySQLDSN(tt.in, tt.user, tt.pass))
		})
	}
}

func TestNewGorm_UnsupportedDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "sqlite"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}
