package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// ===== INTEGRATION TESTS =====

const cProject = `vars:
  NAME: hello
targets:
  all:
    doc: Build and run the hello program
    steps:
      - toolchain: {lang: c, name: gcc, warnings_all: true}
      - concurrent:
          - object: {lang: c, out: build/main.o, in: [main.c]}
          - object: {lang: c, out: build/greet.o, in: [greet.c]}
      - link: {lang: c, out: $NAME.exe, in: [build/main.o, build/greet.o]}
      - run: ./$NAME
`

func TestE2ECBuild(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if runtime.GOOS == "windows" {
		t.Skip("unix toolchain only")
	}
	if _, err := exec.LookPath("gcc"); err != nil {
		t.Skip("gcc not installed")
	}

	dir := t.TempDir()
	writeScript(t, dir, DefaultScript, cProject)
	if err := os.MkdirAll(filepath.Join(dir, "build"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeScript(t, dir, "greet.c", "#include <stdio.h>\nvoid greet(void) { printf(\"hello from raise\\n\"); }\n")
	writeScript(t, dir, "main.c", "void greet(void);\nint main(void) { greet(); return 0; }\n")

	rec := &recorder{}
	build := func() error {
		return runBuild(context.Background(), BuildOptions{Dir: dir, Jobs: 2, PollInterval: 10 * time.Millisecond}, rec, discardLog, []string{"all"})
	}

	if err := build(); err != nil {
		t.Fatalf("first build failed: %v\nfails: %v", err, rec.fails)
	}
	if len(rec.printed) != 1 || rec.printed[0] != "hello from raise" {
		t.Fatalf("program output = %v", rec.printed)
	}
	for _, f := range []string{"build/main.o", "build/greet.o", "hello"} {
		if !fileExists(filepath.Join(dir, f)) {
			t.Errorf("%s was not built", f)
		}
	}
	if !rec.contains("info: Building C objects concurrently ...") {
		t.Errorf("missing concurrent header: %v", rec.lines)
	}

	// second build: everything is up to date, only the run step executes
	*rec = recorder{}
	if err := build(); err != nil {
		t.Fatalf("second build failed: %v", err)
	}
	if rec.oks != 1 {
		t.Errorf("second build ran %d commands, want only the program", rec.oks)
	}

	// touching one source rebuilds only its object and the program
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(filepath.Join(dir, "greet.c"), future, future); err != nil {
		t.Fatal(err)
	}
	*rec = recorder{}
	if err := build(); err != nil {
		t.Fatalf("third build failed: %v", err)
	}
	if !rec.contains("'build/greet.o'") || rec.contains("'build/main.o'") {
		t.Errorf("unexpected rebuild set: %v", rec.lines)
	}
}

func TestE2ECompileError(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if runtime.GOOS == "windows" {
		t.Skip("unix toolchain only")
	}
	if _, err := exec.LookPath("gcc"); err != nil {
		t.Skip("gcc not installed")
	}

	dir := t.TempDir()
	writeScript(t, dir, DefaultScript, cProject)
	if err := os.MkdirAll(filepath.Join(dir, "build"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeScript(t, dir, "greet.c", "void greet(void) { this is not C }\n")
	writeScript(t, dir, "main.c", "void greet(void);\nint main(void) { greet(); return 0; }\n")

	rec := &recorder{}
	err := runBuild(context.Background(), BuildOptions{Dir: dir, Jobs: 2}, rec, discardLog, []string{"all"})

	fatal, ok := asFatal(err)
	if !ok || fatal.Kind != COMMAND_FAILURE {
		t.Fatalf("expected a command failure, got %v", err)
	}
	if fatal.Message != "Building failed. Try again." {
		t.Errorf("Message = %q", fatal.Message)
	}
	if !strings.Contains(fatal.Output, "greet.c") {
		t.Errorf("compiler output not captured: %q", fatal.Output)
	}
	if fileExists(filepath.Join(dir, "hello")) {
		t.Error("the program was linked after a failed batch")
	}
}

func TestE2EMissingSource(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix toolchain only")
	}

	dir := t.TempDir()
	writeScript(t, dir, DefaultScript, `targets:
  gen:
    steps:
      - run: cp schema.sql schema.h
        outputs: [schema.h]
        inputs: [schema.sql]
`)

	err := runBuild(context.Background(), BuildOptions{Dir: dir}, &recorder{}, discardLog, []string{"gen"})
	fatal, ok := asFatal(err)
	if !ok || fatal.Kind != STALE_INPUT {
		t.Fatalf("expected STALE_INPUT, got %v", err)
	}
	if !strings.HasSuffix(fatal.Message, "schema.sql' does not exist.") {
		t.Errorf("Message = %q", fatal.Message)
	}
}
