package config

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Pattern matches block names against a group name pattern. Within a
// pattern, '*' matches and captures one or more characters, and '?' matches
// exactly one. All other characters match literally. A pattern matches
// anywhere within a block name, and the first capture is the group name:
// under pattern "[BAL:*]", block "Refinery [BAL:ore]" belongs to group "ore".
// A pattern having no '*' names its group by the matched text.
type Pattern struct {
	Source string
	re     *regexp.Regexp
}

// CompilePattern compiles pattern |src|.
func CompilePattern(src string) (*Pattern, error) {
	if src == "" {
		return nil, errors.New("expected non-empty pattern")
	}
	var b strings.Builder
	var literals int

	for i, r := range src {
		switch r {
		case '*':
			if i == len(src)-1 {
				b.WriteString("(.+)")
			} else {
				b.WriteString("(.+?)")
			}
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
			literals++
		}
	}
	if literals == 0 {
		return nil, errors.Errorf("pattern %q must include a literal character", src)
	}
	var re, err = regexp.Compile(b.String())
	if err != nil {
		return nil, errors.Wrapf(err, "compiling pattern %q", src)
	}
	return &Pattern{Source: src, re: re}, nil
}

// Group returns the group which claims |blockName|, or the empty string if
// it isn't claimed. A nil Pattern claims nothing.
func (p *Pattern) Group(blockName string) string {
	if p == nil {
		return ""
	}
	var m = p.re.FindStringSubmatch(blockName)
	switch {
	case m == nil:
		return ""
	case len(m) > 1:
		return strings.TrimSpace(m[1])
	default:
		return m[0]
	}
}
