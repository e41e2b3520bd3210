package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/trgovina/internal/api"
	"github.com/erazemk/trgovina/internal/model"
)

type testEnv struct {
	env
	out *bytes.Buffer
	err *bytes.Buffer
}

func newTestEnv(stdin string) testEnv {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return testEnv{
		env: env{stdin: strings.NewReader(stdin), stdout: out, stderr: errOut},
		out: out,
		err: errOut,
	}
}

func TestServeCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "shop.sqlite3")
	te := newTestEnv(`{"id":"1","op":"addItem","params":{"name":"Glue","stock":2,"minStock":5,"price":"3"}}` + "\n" +
		`{"id":"2","op":"getUnreadAlerts"}` + "\n")

	code := run(context.Background(), []string{"-d", dbPath}, te.env)
	require.Equal(t, 0, code, te.err.String())

	lines := strings.Split(strings.TrimSpace(te.out.String()), "\n")
	require.Len(t, lines, 2)
	var resp api.Response
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "2", resp.ID)
}

func TestExportImportCommands(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "shop.sqlite3")
	snapPath := filepath.Join(dir, "backup.json")

	te := newTestEnv(`{"op":"addItem","params":{"name":"Glue","stock":7,"minStock":1,"price":"3"}}` + "\n")
	require.Equal(t, 0, run(context.Background(), []string{"-d", dbPath}, te.env))

	te = newTestEnv("")
	require.Equal(t, 0, run(context.Background(), []string{"-d", dbPath, "export", "-o", snapPath}, te.env), te.err.String())
	doc, err := os.ReadFile(snapPath)
	require.NoError(t, err)
	assert.Contains(t, string(doc), `"Glue"`)

	other := filepath.Join(dir, "other.sqlite3")
	te = newTestEnv("")
	assert.Equal(t, 2, run(context.Background(), []string{"-d", other, "import", "-i", snapPath}, te.env))
	assert.Contains(t, te.err.String(), "-yes")

	te = newTestEnv("")
	require.Equal(t, 0, run(context.Background(), []string{"-d", other, "import", "-i", snapPath, "-yes"}, te.env), te.err.String())
	assert.Contains(t, te.out.String(), "imported 1 items")

	te = newTestEnv("")
	require.Equal(t, 0, run(context.Background(), []string{"-d", other, "stats"}, te.env))
	var stats struct {
		Dashboard model.DashboardStats `json:"dashboard"`
		Size      model.DatabaseSize   `json:"size"`
	}
	require.NoError(t, json.Unmarshal(te.out.Bytes(), &stats))
	assert.Equal(t, 1, stats.Dashboard.TotalItems)
	assert.Equal(t, "21", stats.Dashboard.TotalValue.String())
	assert.NotNil(t, stats.Size.LastImportAt)
}

func TestImportRejectsBadSnapshot(t *testing.T) {
	dir := t.TempDir()
	snapPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(snapPath, []byte(`{"items":[]}`), 0o644))

	te := newTestEnv("")
	code := run(context.Background(), []string{"-d", filepath.Join(dir, "shop.sqlite3"), "import", "-i", snapPath, "-yes"}, te.env)
	assert.Equal(t, 1, code)
	assert.Contains(t, te.err.String(), "import format error")
}

func TestInvoicePDFCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "shop.sqlite3")
	te := newTestEnv(`{"op":"addInvoice","params":{"invoiceNumber":"INV-3","date":"2024-04-02","items":[{"name":"Gravel","quantity":2,"unitPrice":"80"}]}}` + "\n")
	require.Equal(t, 0, run(context.Background(), []string{"-d", dbPath}, te.env))

	out := filepath.Join(dir, "inv.pdf")
	te = newTestEnv("")
	require.Equal(t, 0, run(context.Background(), []string{"-d", dbPath, "invoice-pdf", "-id", "1", "-o", out}, te.env), te.err.String())
	doc, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))

	te = newTestEnv("")
	assert.Equal(t, 1, run(context.Background(), []string{"-d", dbPath, "invoice-pdf", "-id", "99", "-o", out}, te.env))
}

func TestUnknownCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "shop.sqlite3")
	te := newTestEnv("")
	assert.Equal(t, 2, run(context.Background(), []string{"-d", dbPath, "launch"}, te.env))
	assert.Contains(t, te.err.String(), "unknown command")
	_, err := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))
}

func TestHelp(t *testing.T) {
	te := newTestEnv("")
	assert.Equal(t, 0, run(context.Background(), []string{"-h"}, te.env))
	assert.Contains(t, te.out.String(), "Usage: trgovina")
}

func TestLevelRouter(t *testing.T) {
	var stderr, file bytes.Buffer
	log := zerolog.New(levelRouter{stderr: &stderr, file: &file})

	log.Info().Msg("opened")
	assert.Contains(t, file.String(), "opened")
	assert.Empty(t, stderr.String())

	log.Warn().Msg("recovered")
	assert.Contains(t, file.String(), "recovered")
	assert.Contains(t, stderr.String(), "recovered")
}

func TestLevelRouterWithoutFile(t *testing.T) {
	var stderr bytes.Buffer
	log := zerolog.New(levelRouter{stderr: &stderr})

	log.Debug().Msg("dispatch")
	assert.Contains(t, stderr.String(), "dispatch")
}
