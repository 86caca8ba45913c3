/*
Package main implements Raise, a build tool that runs the steps of a YAML
build script and compiles C and C++ projects in parallel.

A build is a list of targets. Each target is a list of steps: plain shell
commands, toolchain selection, and the build steps that produce objects,
programs, shared and static libraries. Steps that produce files only run
when their outputs are older than their inputs.

# Parallel batches

A concurrent block collects its steps into one batch. The batch is
drained with at most -p jobs running at a time. A job whose outputs are
up to date is skipped without taking a slot. The first failing job stops
the batch: nothing new is admitted, the jobs still running are killed
(their whole process group on unix, unless --abandon is given) and the
build exits with the failure. A job that only writes to stderr is a
warning, and the batch continues.

Outside a concurrent block every step runs on its own, one after the
other.

# Toolchains

The toolchain step selects a compiler (gcc, clang, cl.exe for C; g++,
clang++, cl.exe for C++) or the linker (ld, link.exe) among the ones
found on PATH, and writes CC/CFLAGS, CXX/CXXFLAGS or LINKER into the
environment of the commands that follow. Build scripts use the portable
extensions .exe, .o, .so and .a; they are mapped to the native ones
(.exe, .obj, .dll, .lib on Windows; no extension for programs on unix).

# Configuration

Raise reads raise.yaml from the working directory:

	include: [common.yaml]

	vars:
	  NAME: hello

	prologue:
	  run:
	    - echo Starting build

	targets:
	  all:
	    doc: Build the hello program
	    steps:
	      - toolchain: {lang: c, name: gcc, warnings_all: true}
	      - concurrent:
	          - object: {lang: c, out: build/a.o, in: [a.c]}
	          - object: {lang: c, out: build/b.o, in: [b.c]}
	      - link: {lang: c, out: $NAME.exe, in: [build/a.o, build/b.o]}
	      - run: ./$NAME.exe

Variables are substituted in run commands as $VAR or ${VAR}. Built-in
variables are $cwd, $@ (target name) and $TIMESTAMP.

# Usage

	raise build -t all
	raise build -t clean,all -p 8 --plain
	raise list --format json
	raise validate -f other.yaml

# Exit codes

	1  target not found
	2  build script not found
	3  configuration error
	4  missing input file
	5  command failure
	6  interrupted
*/
package main
