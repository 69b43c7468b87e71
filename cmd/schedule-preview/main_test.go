package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs(args)
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	return out.String(), err
}

func TestDatesCommand(t *testing.T) {
	out, err := run(t, "dates", "--start", "2026-01-05", "--frequency", "weekly", "--paydays", "3", "--count", "4", "--today", "2026-01-05")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "2026-01-07", got["next_payback_date"])
	assert.Equal(t, "2026-02-02", got["scheduled_end_date"])
}

func TestInstallmentsCommand(t *testing.T) {
	out, err := run(t, "installments", "--start", "2026-01-05", "--frequency", "WEEKLY", "--paydays", "3", "--count", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "2026-01-07  Wed")
	assert.Contains(t, lines[2], "2026-01-21")
}

func TestInvalidFlags(t *testing.T) {
	_, err := run(t, "dates", "--start", "05/01/2026", "--frequency", "WEEKLY", "--paydays", "3")
	assert.ErrorContains(t, err, "invalid --start")

	_, err = run(t, "dates", "--start", "2026-01-05", "--frequency", "YEARLY", "--paydays", "3")
	assert.ErrorContains(t, err, "invalid frequency")

	_, err = run(t, "installments", "--start", "2026-01-05", "--frequency", "DAILY", "--paydays", "1,2")
	assert.ErrorContains(t, err, "--count must be positive")

	_, err = run(t, "dates", "--frequency", "DAILY", "--paydays", "1")
	assert.Error(t, err)
}
