package report

import (
	"os"

	"golang.org/x/term"
)

// EnvPlain forces plain output when set to "1".
const EnvPlain = "METAFMT_PLAIN"

// Styled reports whether f is a terminal that should get colors and boxes.
// METAFMT_PLAIN=1, CI and NO_COLOR all turn styling off.
func Styled(f *os.File) bool {
	if os.Getenv(EnvPlain) == "1" {
		return false
	}
	for _, v := range []string{"CI", "NO_COLOR"} {
		if os.Getenv(v) != "" {
			return false
		}
	}
	return term.IsTerminal(int(f.Fd()))
}
