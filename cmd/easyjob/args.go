package main

import "strings"

// valueFlags take their value from the next token when not written as --flag=value.
var valueFlags = map[string]bool{
	"-t": true, "--table": true,
	"-q": true, "--query": true,
	"--separate": true,
	"--mode":     true,
	"-c":         true, "--config": true,
	"--log_dir":    true,
	"--log_date":   true,
	"--chunk-size": true,
	"-n":           true, "--limit": true,
}

// normalizeArgs moves the flags of a subcommand in front of its positional
// arguments, so "extract <uri> -t t out.txt --separate=|" parses the way the
// usage line reads. Everything up to and including the command name is kept as is.
func normalizeArgs(args []string, commands map[string]bool) []string {
	cmd := -1
	for i := 1; i < len(args); i++ {
		if commands[args[i]] {
			cmd = i
			break
		}
		if valueFlags[args[i]] {
			i++
		}
	}
	if cmd < 0 {
		return args
	}

	var flags, positional []string
	rest := args[cmd+1:]
	for i := 0; i < len(rest); i++ {
		tok := rest[i]
		switch {
		case tok == "--":
			positional = append(positional, rest[i+1:]...)
			i = len(rest)
		case strings.HasPrefix(tok, "-") && len(tok) > 1:
			flags = append(flags, tok)
			if valueFlags[tok] && i+1 < len(rest) {
				flags = append(flags, rest[i+1])
				i++
			}
		default:
			positional = append(positional, tok)
		}
	}

	out := make([]string, 0, len(args)+1)
	out = append(out, args[:cmd+1]...)
	out = append(out, flags...)
	if len(positional) > 0 {
		out = append(out, "--")
		out = append(out, positional...)
	}
	return out
}
