package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/domain/media"
	"github.com/janhq/cms-media/internal/infrastructure/brokerclient"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newFakeBroker(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != brokerclient.TokenPath {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		expiry := time.Now().Add(time.Hour).UTC()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(credential.Envelope{
			Token: &credential.Token{Credentials: &credential.Credentials{
				AccessKeyID:     "ASIAEXAMPLEKEY00001",
				SecretAccessKey: "temporary-secret",
				SessionToken:    "session-token",
				Expiration:      &expiry,
			}},
			CreatedAt: time.Now().UnixMilli(),
		})
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func localArgs(brokerURL, root string) []string {
	return []string{
		"--broker-url", brokerURL,
		"--bucket", "cms-assets",
		"--backend", "local",
		"--local-path", root,
		"--read-url", "http://cdn.test",
	}
}

func TestUploadListDelete(t *testing.T) {
	broker, hits := newFakeBroker(t)
	root := t.TempDir()
	src := t.TempDir()

	pngPath := filepath.Join(src, "a.png")
	notesPath := filepath.Join(src, "My Notes.txt")
	require.NoError(t, os.WriteFile(pngPath, []byte("\x89PNG\r\n\x1a\n"), 0o644))
	require.NoError(t, os.WriteFile(notesPath, []byte("hello"), 0o644))

	out, err := runCLI(t, append(localArgs(broker.URL, root), "upload", "/hero-image/", pngPath, notesPath)...)
	require.NoError(t, err)

	var saved []media.Media
	require.NoError(t, json.Unmarshal([]byte(out), &saved))
	require.Len(t, saved, 2)
	assert.Equal(t, "hero-image/a.png", saved[0].ID)
	assert.Equal(t, "http://cdn.test/hero-image/a.png", saved[0].PreviewSrc)
	assert.Equal(t, "hero-image/My-Notes.txt", saved[1].ID)
	assert.Empty(t, saved[1].PreviewSrc)
	assert.FileExists(t, filepath.Join(root, "cms-assets", "hero-image", "a.png"))
	assert.Equal(t, int32(1), hits.Load())

	out, err = runCLI(t, append(localArgs(broker.URL, root), "list")...)
	require.NoError(t, err)
	var rootPage media.ListPage
	require.NoError(t, json.Unmarshal([]byte(out), &rootPage))
	require.Len(t, rootPage.Items, 1)
	assert.Equal(t, media.TypeDir, rootPage.Items[0].Type)
	assert.Equal(t, "hero-image", rootPage.Items[0].ID)

	out, err = runCLI(t, append(localArgs(broker.URL, root), "--output", "yaml", "list", "hero-image", "--limit", "1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "totalCount: 2")
	assert.Contains(t, out, "limit: 1")
	assert.Contains(t, out, "id: hero-image/My-Notes.txt")

	_, err = runCLI(t, append(localArgs(broker.URL, root), "delete", "hero-image/a.png")...)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(root, "cms-assets", "hero-image", "a.png"))
}

func TestBrokerErrorIsReported(t *testing.T) {
	broker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"S3 Media: Missing ENVs S3_UPLOAD_KEY"}`))
	}))
	t.Cleanup(broker.Close)

	_, err := runCLI(t, append(localArgs(broker.URL, t.TempDir()), "list")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3 Media: Missing ENVs S3_UPLOAD_KEY")
}

func TestPreview(t *testing.T) {
	out, err := runCLI(t, "--bucket", "cms-assets", "preview", "hero-image/a.png")
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"//cms-assets.s3.amazonaws.com/hero-image/a.png"}`, out)
}

func TestSettingsFromEnvAndFile(t *testing.T) {
	t.Run("env", func(t *testing.T) {
		t.Setenv("MEDIA_CLI_BUCKET", "env-bucket")
		t.Setenv("MEDIA_CLI_READ_URL", "https://env.example.com/")

		out, err := runCLI(t, "preview", "a.png")
		require.NoError(t, err)
		assert.JSONEq(t, `{"url":"https://env.example.com/a.png"}`, out)
	})

	t.Run("config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "media-cli.yaml")
		require.NoError(t, os.WriteFile(path, []byte("bucket: file-bucket\nread-url: https://cdn.example.com\noutput: yaml\n"), 0o644))

		out, err := runCLI(t, "--config", path, "preview", "docs/a.png")
		require.NoError(t, err)
		assert.Equal(t, "url: https://cdn.example.com/docs/a.png\n", out)
	})

	t.Run("flag wins over env", func(t *testing.T) {
		t.Setenv("MEDIA_CLI_BUCKET", "env-bucket")

		out, err := runCLI(t, "--bucket", "flag-bucket", "preview", "a.png")
		require.NoError(t, err)
		assert.Contains(t, out, "//flag-bucket.s3.amazonaws.com/a.png")
	})
}

func TestInvalidSettings(t *testing.T) {
	_, err := runCLI(t, "--bucket", "cms-assets", "--output", "xml", "preview", "a.png")
	assert.ErrorContains(t, err, "output must be json or yaml")

	_, err = runCLI(t, "preview", "a.png")
	assert.ErrorIs(t, err, media.ErrBucketRequired)

	_, err = runCLI(t, "--bucket", "cms-assets", "--backend", "ftp", "--broker-url", "http://localhost", "list")
	assert.ErrorContains(t, err, "backend must be s3, minio or local")
}

func TestSchema(t *testing.T) {
	out, err := runCLI(t, "schema", "--type", "page")
	require.NoError(t, err)
	assert.Contains(t, out, `"totalCount"`)
	assert.Contains(t, out, `"Media list page"`)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	out, err = runCLI(t, "schema", "--type", "media")
	require.NoError(t, err)
	assert.Contains(t, out, `"previewSrc"`)

	_, err = runCLI(t, "schema", "--type", "nope")
	assert.ErrorContains(t, err, `unknown schema type "nope"`)
}

func TestRenderYAMLKeepsIntegers(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, render(&out, "yaml", credential.Envelope{CreatedAt: 1709294400000}))
	assert.Equal(t, "createdAt: 1709294400000\n", out.String())
}
