package main

import (
	"regexp"
	"strings"
)

// $var or ${var} or $@
var varPattern = regexp.MustCompile(`\$\w+|\$\{[^}]+\}|\$@`)

// ParseVars substitutes builtin and build script variables in text.
// References it does not know stay in place for the shell to expand.
func (c *Config) ParseVars(text string, targetName string) string {
	return varPattern.ReplaceAllStringFunc(text, func(m string) string {
		varname := strings.TrimPrefix(m, "$")
		varname = strings.Trim(varname, "{}")

		if val, ok := c.GetVar(varname, targetName); ok {
			return val
		}
		return m
	})
}
