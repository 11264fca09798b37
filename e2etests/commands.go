package e2etests

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// knownCommands is the registry of every issue command the e2e suite
// knows about. Subcommands use space-separated format (e.g., "tag add").
var knownCommands = map[string]bool{
	"init":          true,
	"open":          true,
	"reopen":        true,
	"close":         true,
	"ls":            true,
	"show":          true,
	"log":           true,
	"edit":          true,
	"drop":          true,
	"comment":       true,
	"tag ls":        true,
	"tag new":       true,
	"tag add":       true,
	"tag rm":        true,
	"param set":     true,
	"param rm":      true,
	"chain link":    true,
	"chain unlink":  true,
	"chain attach":  true,
	"parent":        true,
	"children":      true,
	"status":        true,
	"work start":    true,
	"work stop":     true,
	"index":         true,
	"pack":          true,
	"remote ls":     true,
	"remote set":    true,
	"remote rm":     true,
	"remote show":   true,
	"pull":          true,
	"push":          true,
	"stats":         true,
	"release open":  true,
	"release close": true,
	"release ls":    true,
	"release notes": true,
	"config get":    true,
	"config set":    true,
	"config unset":  true,
	"config dump":   true,
	"events":        true,
	"where":         true,
	"version":       true,
}

// ignoredCommands are commands discovered via --help that we intentionally skip.
var ignoredCommands = map[string]bool{
	"help":       true,
	"completion": true,
}

// commandLinePattern matches "  <command>  <description>" in help output.
var commandLinePattern = regexp.MustCompile(`^\s{2}(\S+)\s{2,}`)

// DiscoverCommands runs issue --help and each command's --help and
// returns the discovered commands missing from knownCommands.
func DiscoverCommands(r *Runner) ([]string, error) {
	result := r.RunRaw("--help")
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("issue --help failed: %s", result.Stderr)
	}

	discovered := map[string]bool{}
	for _, cmd := range parseCommandsFromHelp(result.Stdout) {
		if ignoredCommands[cmd] {
			continue
		}
		sub := r.RunRaw(cmd, "--help")
		if sub.ExitCode != 0 {
			return nil, fmt.Errorf("issue %s --help failed: %s", cmd, sub.Stderr)
		}
		subs := parseCommandsFromHelp(sub.Stdout)
		if len(subs) == 0 {
			discovered[cmd] = true
			continue
		}
		for _, s := range subs {
			discovered[cmd+" "+s] = true
		}
	}

	var unknown []string
	for cmd := range discovered {
		if !knownCommands[cmd] {
			unknown = append(unknown, cmd)
		}
	}
	sort.Strings(unknown)
	return unknown, nil
}

// parseCommandsFromHelp extracts command names from the "Available
// Commands:" section of cobra help output.
func parseCommandsFromHelp(helpOutput string) []string {
	var commands []string
	inCommandSection := false
	for _, line := range strings.Split(helpOutput, "\n") {
		if strings.HasPrefix(line, "Available Commands:") {
			inCommandSection = true
			continue
		}
		if !inCommandSection {
			continue
		}
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "Flags:") {
			break
		}
		if m := commandLinePattern.FindStringSubmatch(line); len(m) > 1 {
			commands = append(commands, m[1])
		}
	}
	return commands
}
