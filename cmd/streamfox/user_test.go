package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/app/repository"
	"github.com/ManuelReschke/StreamFox/internal/pkg/database"
)

func TestSetRole(t *testing.T) {
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	users := repository.NewUserRepository(db)

	u, err := models.CreateUser("Ada", "ada@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, users.Create(u))

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, setRole(users, "ADA@example.com", models.ROLE_ADMIN, cmd))
	assert.Contains(t, out.String(), "ada@example.com is now admin")

	stored, err := users.GetByID(u.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin())

	assert.Error(t, setRole(users, "nobody@example.com", models.ROLE_ADMIN, cmd))
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.True(t, names["user"])
}
