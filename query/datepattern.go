package query

import (
	"fmt"
	"strings"
	"unicode"
)

// javaTokens maps runs of Java date pattern letters to Go layout elements.
// Longer runs come first.
var javaTokens = map[rune][]struct {
	count  int
	layout string
}{
	'y': {{4, "2006"}, {3, "2006"}, {2, "06"}, {1, "2006"}},
	'M': {{4, "January"}, {3, "Jan"}, {2, "01"}, {1, "1"}},
	'd': {{2, "02"}, {1, "2"}},
	'H': {{2, "15"}, {1, "15"}},
	'h': {{2, "03"}, {1, "3"}},
	'm': {{2, "04"}, {1, "4"}},
	's': {{2, "05"}, {1, "5"}},
	'S': {{9, "000000000"}, {6, "000000"}, {3, "000"}, {2, "00"}, {1, "0"}},
	'E': {{4, "Monday"}, {3, "Mon"}, {2, "Mon"}, {1, "Mon"}},
	'a': {{1, "PM"}},
	'X': {{3, "Z07:00"}, {2, "Z0700"}, {1, "Z07"}},
	'x': {{3, "-07:00"}, {2, "-0700"}, {1, "-07"}},
	'Z': {{5, "-07:00"}, {4, "-07:00"}, {3, "-0700"}, {2, "-0700"}, {1, "-0700"}},
	'z': {{3, "MST"}, {2, "MST"}, {1, "MST"}},
}

// goWords are the alphabetic elements of Go layouts. Literal text holding
// one would be read back as a layout element.
var goWords = []string{"Jan", "Mon", "MST", "PM", "pm"}

// JavaLayout converts a Java style date pattern such as
// "yyyy-MM-dd'T'HH:mm:ss.SSSXX" into a Go time layout. Quoted text is
// copied literally and "''" is a single quote.
//
// Go layouts cannot escape literal text, so patterns whose literal text
// contains digits, an underscore or a Go layout word are rejected, as is
// fractional seconds not directly after '.' or ','.
func JavaLayout(pattern string) (string, error) {
	var sb strings.Builder
	var literal strings.Builder
	runes := []rune(pattern)

	// flush writes the pending literal; more is set when a layout element
	// follows it
	flush := func(more bool) error {
		text := literal.String()
		literal.Reset()
		if err := checkLiteral(text, more); err != nil {
			return fmt.Errorf("date pattern %q: %w", pattern, err)
		}
		sb.WriteString(text)
		return nil
	}

	for i := 0; i < len(runes); {
		ch := runes[i]

		if ch == '\'' {
			if i+1 < len(runes) && runes[i+1] == '\'' {
				literal.WriteRune('\'')
				i += 2
				continue
			}
			j := i + 1
			for j < len(runes) {
				if runes[j] == '\'' {
					if j+1 < len(runes) && runes[j+1] == '\'' {
						literal.WriteRune('\'')
						j += 2
						continue
					}
					break
				}
				literal.WriteRune(runes[j])
				j++
			}
			i = j + 1
			continue
		}

		options, ok := javaTokens[ch]
		if !ok {
			literal.WriteRune(ch)
			i++
			continue
		}

		run := 1
		for i+run < len(runes) && runes[i+run] == ch {
			run++
		}
		i += run
		if ch == 'S' && !strings.HasSuffix(literal.String(), ".") && !strings.HasSuffix(literal.String(), ",") {
			return "", fmt.Errorf("date pattern %q: fractional seconds must follow '.' or ','", pattern)
		}
		if err := flush(true); err != nil {
			return "", err
		}
		for run > 0 {
			for _, opt := range options {
				if opt.count <= run {
					sb.WriteString(opt.layout)
					run -= opt.count
					break
				}
			}
		}
	}
	if err := flush(false); err != nil {
		return "", err
	}

	return sb.String(), nil
}

func checkLiteral(text string, more bool) error {
	for _, r := range text {
		if unicode.IsDigit(r) || r == '_' {
			return fmt.Errorf("literal %q cannot be expressed in a Go layout", text)
		}
	}
	for _, word := range goWords {
		if strings.Contains(text, word) {
			return fmt.Errorf("literal %q cannot be expressed in a Go layout", text)
		}
	}
	// "P" before "Mon" reads as "PM"
	if more && (strings.HasSuffix(text, "P") || strings.HasSuffix(text, "p")) {
		return fmt.Errorf("literal %q cannot be expressed in a Go layout", text)
	}
	return nil
}
