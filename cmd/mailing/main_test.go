package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diy-network/core/internal/middleware"
	"github.com/diy-network/core/internal/pkg/jwt"
	"github.com/stretchr/testify/require"
)

const testConfig = `
default_url: https://diy.org.ua
jwt_secret: test-secret
mail:
  from: noreply@diy.org.ua
  to: team@diy.org.ua
  provider: log
redis:
  disabled: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRootRejectsArguments(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"unexpected"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.Error(t, cmd.Execute())
}

func TestRootFailsOnInvalidConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", writeConfig(t, "default_url: https://diy.org.ua\n")})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.Error(t, cmd.Execute())
}

func TestTokenCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"token", "--config", writeConfig(t, testConfig), "--subject", "editor"})
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	signer, err := jwt.NewSigner("test-secret")
	require.NoError(t, err)
	claims, err := signer.Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	require.Equal(t, "editor", claims.Subject)
	require.Equal(t, middleware.RoleAdmin, claims.Role)
}
