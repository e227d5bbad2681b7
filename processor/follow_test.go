package processor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowReader_ProcessesAppendedLines(t *testing.T) {
	t.Setenv(PasswordEnvVar, "secret")

	path := filepath.Join(t.TempDir(), "in.log")
	require.NoError(t, os.WriteFile(path, []byte("alpha\n"), 0644))

	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	follower, err := NewFollowReader(ctx, in)
	require.NoError(t, err)
	defer follower.Close()
	assert.Equal(t, path, follower.Name())

	var out bytes.Buffer
	p := New(follower, &out)
	assert.Equal(t, path, p.InputName())

	done := make(chan error, 1)
	go func() { done <- p.Process(ctx) }()

	require.Eventually(t, func() bool { return p.Lines() == 1 }, 5*time.Second, 10*time.Millisecond)

	appender, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = appender.WriteString("beta\n")
	require.NoError(t, err)
	require.NoError(t, appender.Close())

	require.Eventually(t, func() bool { return p.Lines() == 2 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			assert.True(t, errors.Is(err, context.Canceled), "unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Process did not return after cancel")
	}

	assert.Equal(t, " >> alpha\n >> beta\n", out.String())
}

func TestFollowReader_EndsWhenFileRenamed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.log")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()

	follower, err := NewFollowReader(context.Background(), in)
	require.NoError(t, err)
	defer follower.Close()

	buf := make([]byte, 8)
	n, err := follower.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "x", string(buf[:n]))

	require.NoError(t, os.Rename(path, path+".1"))

	done := make(chan error, 1)
	go func() {
		_, err := follower.Read(buf)
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(5 * time.Second):
		t.Fatal("Read did not return after the file was renamed")
	}
}

func TestFollowReader_RejectsNonRegularFiles(t *testing.T) {
	dir, err := os.Open(t.TempDir())
	require.NoError(t, err)
	defer dir.Close()

	_, err = NewFollowReader(context.Background(), dir)
	assert.ErrorIs(t, err, ErrNotRegularFile)
}
