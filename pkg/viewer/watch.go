package viewer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads path whenever it is written or re-created, until ctx is
// done. The parent directory is watched so editors that replace the file by
// rename are followed. Reload failures are logged and leave the current
// snapshot in place. They are also sent on the returned channel, dropping
// any that arrive while it is full. The channel is closed when watching
// stops.
func (s *Session) Watch(ctx context.Context, path string) (<-chan error, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("viewer: watch %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("viewer: watch %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("viewer: watch %s: %w", path, err)
	}

	errs := make(chan error, 8)
	report := func(err error) {
		select {
		case errs <- err:
		default:
		}
	}

	go func() {
		defer close(errs)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				_, err := s.LoadFile(abs)
				if errors.Is(err, ErrSuperseded) {
					continue
				}
				if err != nil {
					s.log.Warn("reload failed, keeping previous structure",
						zap.String("path", abs), zap.Error(err))
					report(err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.Error("file watcher error", zap.String("path", abs), zap.Error(err))
				report(err)
			}
		}
	}()
	return errs, nil
}
