package main

import (
	"os"
	"testing"
	"time"
)

// ===== VARIABLE TESTS =====

func TestGetVar(t *testing.T) {
	cfg := &Config{Vars: map[string]Var{
		"CC":    "gcc",
		"EMPTY": "",
	}}
	cwd, _ := os.Getwd()

	tests := []struct {
		name     string
		varName  string
		target   string
		expected string
		found    bool
	}{
		{"Script variable", "CC", "build", "gcc", true},
		{"Dollar prefix is ignored", "$CC", "build", "gcc", true},
		{"Empty variable", "EMPTY", "build", "", true},
		{"Target name", "@", "release", "release", true},
		{"Working directory", "cwd", "build", cwd, true},
		{"Unknown", "HOME_NOT_IN_SCRIPT", "build", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := cfg.GetVar(tt.varName, tt.target)
			if got != tt.expected || found != tt.found {
				t.Errorf("GetVar(%q) = %q, %v; want %q, %v", tt.varName, got, found, tt.expected, tt.found)
			}
		})
	}
}

func TestGetVarTimestamp(t *testing.T) {
	cfg := &Config{}
	got, ok := cfg.GetVar("TIMESTAMP", "")
	if !ok {
		t.Fatal("TIMESTAMP not found")
	}
	if _, err := time.Parse("2006-01-02 15:04:05", got); err != nil {
		t.Errorf("TIMESTAMP %q does not parse: %v", got, err)
	}
}

func TestParseVars(t *testing.T) {
	cfg := &Config{Vars: map[string]Var{
		"NAME":   "hello",
		"OUTPUT": "app.exe",
	}}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"No variables", "make all", "make all"},
		{"Simple", "./$NAME", "./hello"},
		{"Braced", "${NAME}_test", "hello_test"},
		{"Target name", "echo $@", "echo build"},
		{"Several", "cc -o $OUTPUT $NAME.c", "cc -o app.exe hello.c"},
		{"Unknown kept for the shell", "echo $HOME/$NAME", "echo $HOME/hello"},
		{"Unknown braced kept", "echo ${CC}", "echo ${CC}"},
		{"Lone dollar", "echo $ 5", "echo $ 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.ParseVars(tt.input, "build"); got != tt.expected {
				t.Errorf("ParseVars(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExportVars(t *testing.T) {
	cfg := &Config{Vars: map[string]Var{"CC": "clang", "MODE": "debug"}}
	env := NewEnviron([]string{"CC=gcc", "PATH=/bin"})
	cfg.ExportVars(env)

	if envValue(env, "CC") != "clang" {
		t.Errorf("CC = %q, script variables override the environment", envValue(env, "CC"))
	}
	if envValue(env, "MODE") != "debug" || envValue(env, "PATH") != "/bin" {
		t.Errorf("environ = %v", env.Expanded())
	}
}

func TestExportVarsExtendsInheritedValue(t *testing.T) {
	cfg := &Config{Vars: map[string]Var{
		"PATH":   "$PATH:/opt/bin",
		"CFLAGS": "${CFLAGS} -O2",
		"TOOLS":  "$PATH/tools",
	}}
	env := NewEnviron([]string{"PATH=/usr/bin:/bin", "CFLAGS=-Wall"})
	cfg.ExportVars(env)

	if got := env.Expand("$PATH"); got != "/usr/bin:/bin:/opt/bin" {
		t.Errorf("PATH = %q", got)
	}
	if got := env.Expand("$CFLAGS"); got != "-Wall -O2" {
		t.Errorf("CFLAGS = %q", got)
	}
	if got := env.Expand("$TOOLS"); got != "/usr/bin:/bin:/opt/bin/tools" {
		t.Errorf("TOOLS = %q", got)
	}
}

func BenchmarkParseVars(b *testing.B) {
	cfg := &Config{Vars: map[string]Var{"CC": "gcc", "CFLAGS": "-O2", "OUT": "app"}}
	for b.Loop() {
		cfg.ParseVars("$CC $CFLAGS -o $OUT main.c $@", "build")
	}
}
