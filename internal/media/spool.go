package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Spooler writes uploaded payloads to local disk off the request path. The
// save starts immediately; the one request that needs the payload awaits
// the returned handle without holding any other lock.
type Spooler struct {
	dir     string
	ownsDir bool
}

func NewSpooler(dir string) (*Spooler, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "botgate-spool-")
		if err != nil {
			return nil, fmt.Errorf("create spool dir: %w", err)
		}
		return &Spooler{dir: tmp, ownsDir: true}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	return &Spooler{dir: dir}, nil
}

// Pending is an in-flight save. Wait blocks until the write finishes or
// the context is cancelled.
type Pending struct {
	done chan struct{}
	path string
	size int64
	err  error
}

func (p *Pending) Wait(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-p.done:
		return p.path, p.err
	}
}

// Size is valid only after Wait returns without error.
func (p *Pending) Size() int64 { return p.size }

// SaveAsync drains r into a uniquely named spool file in the background.
func (s *Spooler) SaveAsync(name string, r io.Reader) *Pending {
	if name == "" {
		name = uuid.NewString()
	}
	p := &Pending{done: make(chan struct{})}
	path := filepath.Join(s.dir, uuid.NewString()+"-"+filepath.Base(name))

	go func() {
		defer close(p.done)
		f, err := os.Create(path)
		if err != nil {
			p.err = fmt.Errorf("create spool file: %w", err)
			return
		}
		n, err := io.Copy(f, r)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
			p.err = fmt.Errorf("write spool file: %w", err)
			return
		}
		p.path = path
		p.size = n
	}()
	return p
}

// Remove deletes a spooled file once the upload has been handed off.
func (s *Spooler) Remove(path string) {
	_ = os.Remove(path)
}

func (s *Spooler) Close() error {
	if s.ownsDir {
		return os.RemoveAll(s.dir)
	}
	return nil
}
