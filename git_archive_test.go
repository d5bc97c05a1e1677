package main

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headFile(t *testing.T, dir, name string) (string, string) {
	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	ref, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(ref.Hash())
	require.NoError(t, err)
	file, err := commit.File(name)
	require.NoError(t, err)
	contents, err := file.Contents()
	require.NoError(t, err)
	return commit.Message, contents
}

func Test_GitArchiverCommitsSnapshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	archiver, err := NewGitArchiver(dir)
	require.NoError(t, err)

	require.NoError(t, archiver.Upload(context.Background(), "app.log-0000/1.log", strings.NewReader("a\nb\n")))
	message, contents := headFile(t, dir, "app.log-0000/1.log")
	assert.Equal(t, "archive app.log-0000/1.log", message)
	assert.Equal(t, "a\nb\n", contents)

	// Unchanged content is not an error.
	require.NoError(t, archiver.Upload(context.Background(), "app.log-0000/1.log", strings.NewReader("a\nb\n")))

	// Reopening an existing repository keeps its history.
	reopened, err := NewGitArchiver(dir)
	require.NoError(t, err)
	require.NoError(t, reopened.Upload(context.Background(), "app.log-0000/2.log", strings.NewReader("c\n")))
	_, contents = headFile(t, dir, "app.log-0000/1.log")
	assert.Equal(t, "a\nb\n", contents)
}

func Test_ArchiveHandlerWithGit(t *testing.T) {
	dir := t.TempDir()
	archiver, err := NewGitArchiver(dir)
	require.NoError(t, err)
	routes := newTestServer(t, testConfig(), archiver, "x", "y").routes()

	rec := doRequest(t, routes, http.MethodPost, "/archive?path=app.log", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	_, err = repo.Head()
	assert.NoError(t, err)
}

func Test_NewArchiverSelection(t *testing.T) {
	config := testConfig()
	archiver, closeArchiver, err := newArchiver(context.Background(), config)
	require.NoError(t, err)
	assert.Nil(t, archiver)
	assert.NoError(t, closeArchiver())

	config.ArchiveRepo = t.TempDir()
	archiver, closeArchiver, err = newArchiver(context.Background(), config)
	require.NoError(t, err)
	assert.IsType(t, &GitArchiver{}, archiver)
	assert.NoError(t, closeArchiver())
}
