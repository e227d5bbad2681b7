package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fsnotify/fsnotify"
)

// ErrNotRegularFile is returned when following anything but a regular file.
var ErrNotRegularFile = errors.New("can only follow regular files")

// FollowReader reads a regular file and, instead of returning io.EOF at the
// end of it, waits for more data to be written. The stream ends with io.EOF
// when the context is cancelled or the file is removed or renamed.
type FollowReader struct {
	ctx     context.Context
	file    *os.File
	watcher *fsnotify.Watcher
}

// NewFollowReader starts watching file for writes.
func NewFollowReader(ctx context.Context, file *os.File) (*FollowReader, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", file.Name(), err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", file.Name(), ErrNotRegularFile)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(file.Name()); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", file.Name(), err)
	}

	return &FollowReader{
		ctx:     ctx,
		file:    file,
		watcher: watcher,
	}, nil
}

// Name returns the name of the followed file.
func (fr *FollowReader) Name() string {
	return fr.file.Name()
}

// Read implements io.Reader, blocking at the end of the file until it grows.
func (fr *FollowReader) Read(p []byte) (int, error) {
	for {
		n, err := fr.file.Read(p)
		if n > 0 || (err != nil && err != io.EOF) {
			return n, err
		}

		select {
		case <-fr.ctx.Done():
			return 0, io.EOF
		case event, ok := <-fr.watcher.Events:
			if !ok {
				return 0, io.EOF
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				return 0, io.EOF
			}
		case err, ok := <-fr.watcher.Errors:
			if !ok {
				return 0, io.EOF
			}
			return 0, fmt.Errorf("watching %s: %w", fr.file.Name(), err)
		}
	}
}

// Close stops watching the file. The file itself stays open.
func (fr *FollowReader) Close() error {
	return fr.watcher.Close()
}
