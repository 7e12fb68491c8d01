package main

import (
	"strings"
)

// substitute replaces the reference tokens of every line with the
// resolved literal and returns the number of tokens replaced.
func substitute(lines []string, creds map[string]credential, mode replaceMode) ([]string, int, error) {
	out := make([]string, len(lines))
	count := 0
	for i, line := range lines {
		matches := mode.tokens(line)
		if len(matches) == 0 {
			out[i] = line
			continue
		}

		var b strings.Builder
		last := 0
		for _, m := range matches {
			id, err := parseIdent(line[m[4]:m[5]])
			if err != nil {
				return nil, 0, err
			}
			cred, ok := creds[id.Hex]
			if !ok {
				return nil, 0, &UnresolvedError{Line: line, ID: id}
			}
			b.WriteString(line[last:m[0]])
			if strings.EqualFold(line[m[2]:m[3]], "U") {
				b.WriteString(cred.UserName)
			} else {
				b.WriteString(cred.Password)
			}
			last = m[1]
			count++
		}
		b.WriteString(line[last:])
		out[i] = b.String()
	}
	return out, count, nil
}

func splitLines(data []byte) []string {
	return strings.Split(string(data), "\n")
}

func joinLines(lines []string) []byte {
	return []byte(strings.Join(lines, "\n"))
}
