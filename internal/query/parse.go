package query

import (
	"strconv"
	"strings"
	"time"
)

// DefaultLimit is the result cap applied when neither the config nor
// the query sets one.
const DefaultLimit = 20

// Parse tokenizes a raw query string on whitespace and parses it. This
// is the entry point for the interactive panel, where the user types
// the whole request as one line.
func Parse(raw string, def Defaults) (Query, error) {
	return ParseTokens(strings.Fields(raw), def)
}

// ParseTokens parses an already-split token list. The one-shot command
// feeds its positional arguments here unchanged, so the CLI and the
// panel share one grammar.
//
// Tokens starting with "-" are modifiers; everything else concatenates
// into the match text with single spaces. Modifier order does not
// matter. A lone "-" or "--" is text, not a modifier.
func ParseTokens(tokens []string, def Defaults) (Query, error) {
	q := Query{
		Mode:          ModeFuzzy,
		Scope:         ScopeAny,
		BaseDir:       def.BaseDir,
		Limit:         def.Limit,
		Timeout:       def.Timeout,
		IncludeHidden: def.IncludeHidden,
		Output:        OutputList,
	}
	if q.Limit < 0 {
		q.Limit = DefaultLimit
	}

	var text []string

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !isModifier(tok) {
			text = append(text, tok)
			continue
		}

		switch tok {
		case "-d", "--dir":
			q.Scope = ScopeDirectoriesOnly
		case "-e", "--exact":
			q.Mode = ModeExact
		case "-1", "--first":
			q.Limit = 1
		case "-H", "--hidden":
			q.IncludeHidden = true
		case "-j", "--json":
			q.Output = OutputJSON
		case "-c", "--compact":
			q.Output = OutputCompact
		case "-b", "--base":
			arg, ok := takeArgument(tokens, &i)
			if !ok {
				return Query{}, &ParseError{Kind: ErrMissingArgument, Token: tok}
			}
			q.BaseDir = arg
		case "-n", "--limit":
			arg, ok := takeArgument(tokens, &i)
			if !ok {
				return Query{}, &ParseError{Kind: ErrMissingArgument, Token: tok}
			}
			n, err := strconv.Atoi(arg)
			if err != nil || n < 0 {
				return Query{}, &ParseError{Kind: ErrInvalidLimit, Token: arg}
			}
			q.Limit = n
		case "-t", "--timeout":
			arg, ok := takeArgument(tokens, &i)
			if !ok {
				return Query{}, &ParseError{Kind: ErrMissingArgument, Token: tok}
			}
			secs, err := strconv.ParseFloat(arg, 64)
			if err != nil || secs < 0 {
				return Query{}, &ParseError{Kind: ErrInvalidTimeout, Token: arg}
			}
			q.Timeout = time.Duration(secs * float64(time.Second))
		default:
			return Query{}, &ParseError{Kind: ErrUnknownModifier, Token: tok}
		}
	}

	q.Text = strings.Join(text, " ")
	if q.Text == "" {
		return Query{}, &ParseError{Kind: ErrEmptyQuery}
	}

	return q, nil
}

// takeArgument consumes the token after tokens[*i] as a modifier
// argument. The argument is taken verbatim even when it starts with
// "-", so paths like "-b -backups" parse.
func takeArgument(tokens []string, i *int) (string, bool) {
	if *i+1 >= len(tokens) {
		return "", false
	}
	*i++
	return tokens[*i], true
}

// TakesArgument reports whether tok is a modifier that consumes the
// following token as its argument. Callers scanning a token list must
// skip that argument: it is never interpreted as a modifier itself.
func TakesArgument(tok string) bool {
	switch tok {
	case "-b", "--base", "-n", "--limit", "-t", "--timeout":
		return true
	}
	return false
}

func isModifier(tok string) bool {
	if tok == "-" || tok == "--" {
		return false
	}
	return strings.HasPrefix(tok, "-")
}
