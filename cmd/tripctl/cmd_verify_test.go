package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tripshare/internal/model"
	"tripshare/internal/repository/memory"
	"tripshare/internal/seed"
	"tripshare/internal/service"
)

func seededVerifier(t *testing.T) *service.CredentialVerifier {
	t.Helper()
	d, err := seed.Build(bcrypt.MinCost)
	require.NoError(t, err)

	store := memory.NewStore()
	require.NoError(t, seed.Load(context.Background(), d, store.Users(), store.Experiences(), store.Comments()))
	return service.NewCredentialVerifier(store.Users())
}

func TestVerifyCredentials(t *testing.T) {
	v := seededVerifier(t)

	tests := []struct {
		name     string
		username string
		stdin    string
		wantErr  error
		wantOut  string
	}{
		{"valid with newline", "yael_travel", "demo123\n", nil, `"id": "1"`},
		{"valid without newline", "omer_foodie", "demo123", nil, `"username": "omer_foodie"`},
		{"windows line ending", "dana_explorer", "demo123\r\n", nil, `"id": "3"`},
		{"wrong password", "yael_travel", "demo1234\n", errRejected, "invalid credentials"},
		{"unknown user", "ghost", "demo123\n", errRejected, "invalid credentials"},
		{"empty password", "yael_travel", "\n", errRejected, "missing credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := verifyCredentials(context.Background(), v, tt.username, strings.NewReader(tt.stdin), &out)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Contains(t, out.String(), tt.wantOut)
		})
	}
}

func TestVerifyCredentials_PrintsIdentityOnly(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, verifyCredentials(context.Background(), seededVerifier(t), "yael_travel", strings.NewReader("demo123\n"), &out))

	var identity model.Identity
	require.NoError(t, json.Unmarshal(out.Bytes(), &identity))
	assert.Equal(t, "Yael Cohen", identity.FullName)
	assert.NotContains(t, out.String(), "password")
}

type failingVerifier struct{}

func (failingVerifier) Verify(ctx context.Context, username, password string) (*model.Identity, error) {
	return nil, errors.New("connection refused")
}

func TestVerifyCredentials_StoreFailureIsNotRejection(t *testing.T) {
	var out bytes.Buffer
	err := verifyCredentials(context.Background(), failingVerifier{}, "yael_travel", strings.NewReader("x\n"), &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errRejected)
	assert.Empty(t, out.String())
}
