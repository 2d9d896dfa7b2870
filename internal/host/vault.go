package host

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Vault event names raised by VaultWatcher.
const (
	VaultCreate = "create"
	VaultModify = "modify"
	VaultDelete = "delete"
	VaultRename = "rename"
)

// VaultWatcher turns file-system changes under a directory into vault
// events on an Emitter. Each event carries the path relative to the vault
// root as its only parameter.
//
// Hidden files and directories (leading '.') are ignored.
type VaultWatcher struct {
	root    string
	emitter *Emitter
	watcher *fsnotify.Watcher

	// onError receives watcher errors; may be nil.
	onError func(error)

	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// NewVaultWatcher watches root recursively and raises events on emitter.
func NewVaultWatcher(root string, emitter *Emitter, onError func(error)) (*VaultWatcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "watch", Path: abs, Err: errors.New("not a directory")}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &VaultWatcher{
		root:    abs,
		emitter: emitter,
		watcher: fsw,
		onError: onError,
		closeCh: make(chan struct{}),
	}

	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Root returns the absolute vault directory.
func (w *VaultWatcher) Root() string {
	return w.root
}

// addTree watches dir and every non-hidden directory below it.
func (w *VaultWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && hidden(p) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			w.report(err)
		}
		return nil
	})
}

func (w *VaultWatcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

func (w *VaultWatcher) handle(ev fsnotify.Event) {
	if hidden(ev.Name) {
		return
	}

	name := vaultEventName(ev.Op)
	if name == "" {
		return
	}

	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.report(err)
			}
		}
	}

	w.emitter.Emit(context.Background(), name, w.relative(ev.Name))
}

// vaultEventName maps an fsnotify op to a vault event. Chmod-only changes
// raise nothing.
func vaultEventName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return VaultCreate
	case op.Has(fsnotify.Rename):
		return VaultRename
	case op.Has(fsnotify.Remove):
		return VaultDelete
	case op.Has(fsnotify.Write):
		return VaultModify
	default:
		return ""
	}
}

func (w *VaultWatcher) relative(p string) string {
	rel, err := filepath.Rel(w.root, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}

func hidden(p string) bool {
	return strings.HasPrefix(filepath.Base(p), ".")
}

func (w *VaultWatcher) report(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}

// Close stops watching. It is safe to call more than once.
func (w *VaultWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.wg.Wait()
	return w.watcher.Close()
}
