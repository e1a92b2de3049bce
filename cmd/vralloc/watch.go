//go:build linux

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unsafe"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-run allocation every time the given assembly file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchAndAllocate(cmd, args[0])
		},
	}
	return cmd
}

// fileWatcher is adapted from filewatcher_unix.go: the same
// inotify_init1/inotify_add_watch/read loop, trimmed to a single
// watched path and a debounce timer, instead of the teacher's
// directory-wide dependency-reload watcher.
type fileWatcher struct {
	fd       int
	wd       int
	path     string
	mu       sync.Mutex
	debounce *time.Timer
	onChange func()
}

func newFileWatcher(path string, onChange func()) (*fileWatcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify_init failed: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	wd, err := unix.InotifyAddWatch(fd, absPath, unix.IN_MODIFY|unix.IN_CLOSE_WRITE)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to watch %s: %w", absPath, err)
	}
	return &fileWatcher{fd: fd, wd: wd, path: absPath, onChange: onChange}, nil
}

func (fw *fileWatcher) run(verbose bool) {
	buf := make([]byte, unix.SizeofInotifyEvent*10)
	for {
		n, err := unix.Read(fw.fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "vralloc: error reading inotify events: %v\n", err)
			}
			continue
		}

		offset := 0
		triggered := false
		for offset < n {
			event := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
			offset += unix.SizeofInotifyEvent + int(event.Len)
			if event.Mask&(unix.IN_MODIFY|unix.IN_CLOSE_WRITE) != 0 {
				triggered = true
			}
		}
		if triggered {
			fw.scheduleChange()
		}
	}
}

func (fw *fileWatcher) scheduleChange() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.debounce != nil {
		fw.debounce.Stop()
	}
	fw.debounce = time.AfterFunc(50*time.Millisecond, fw.onChange)
}

func (fw *fileWatcher) close() {
	unix.InotifyRmWatch(fw.fd, uint32(fw.wd))
	unix.Close(fw.fd)
}

func watchAndAllocate(cmd *cobra.Command, path string) error {
	run := func() {
		if err := runAllocate(cmd, path); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	run()

	cfg := resolveConfig(cmd)
	fw, err := newFileWatcher(path, run)
	if err != nil {
		return err
	}
	defer fw.close()

	fw.run(cfg.verbose)
	return nil
}
