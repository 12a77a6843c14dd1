package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "Str0ng!Passw0rd", false},
		{"Too short", "Sh0rt!aa", true},
		{"No uppercase", "weak!passw0rd", true},
		{"No lowercase", "WEAK!PASSW0RD", true},
		{"No digit", "Weak!Password", true},
		{"No special", "WeakPassw0rdd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("alice"))
	assert.NoError(t, ValidateUsername("alice_b-99"))
	assert.Error(t, ValidateUsername("al"))
	assert.Error(t, ValidateUsername("_alice"))
	assert.Error(t, ValidateUsername("alice-"))
	assert.Error(t, ValidateUsername("al ice"))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("alice@example.com"))
	assert.Error(t, ValidateEmail("alice@"))
	assert.Error(t, ValidateEmail("not-an-email"))
}
