package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// recorder is a Reporter that keeps every call and samples the
// scheduler's running count whenever a job is reported.
type recorder struct {
	sched      *Scheduler
	lines      []string
	maxRunning int
	oks        int
	warnings   []string
	fails      []string
	printed    []string
}

func (r *recorder) sample() {
	if r.sched != nil {
		r.maxRunning = max(r.maxRunning, r.sched.Running())
	}
}

func (r *recorder) Info(message string) {
	r.lines = append(r.lines, "info: "+message)
}

func (r *recorder) Print(text string) {
	r.printed = append(r.printed, text)
}

func (r *recorder) Status(message string) {
	r.sample()
	r.lines = append(r.lines, "status: "+message)
}

func (r *recorder) Ok() {
	r.oks++
}

func (r *recorder) Warning(detail string) {
	r.warnings = append(r.warnings, detail)
}

func (r *recorder) Fail(detail string) {
	r.fails = append(r.fails, detail)
}

func (r *recorder) contains(sub string) bool {
	for _, l := range r.lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

// newTestScheduler returns a scheduler with k slots running in dir and
// the recorder wired to it.
func newTestScheduler(t *testing.T, k int, dir string) (*Scheduler, *recorder) {
	t.Helper()
	rec := &recorder{}
	s := NewScheduler(Options{
		Jobs:         k,
		PollInterval: 10 * time.Millisecond,
		Dir:          dir,
		Env:          NewEnviron([]string{"PATH=" + os.Getenv("PATH")}),
		Reporter:     rec,
	})
	rec.sched = s
	return s, rec
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh commands")
	}
}

// writeFile creates path under dir with the given modification time.
func writeFile(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(name), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func envValue(env *Environ, key string) string {
	v, _ := env.Lookup(key)
	return v
}
