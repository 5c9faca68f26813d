package report

import (
	"os"
	"testing"
)

func TestStyled_Plain(t *testing.T) {
	t.Setenv(EnvPlain, "1")
	t.Setenv("CI", "")
	t.Setenv("NO_COLOR", "")

	if Styled(os.Stdout) {
		t.Error("Styled() = true, want false with METAFMT_PLAIN=1")
	}
}

func TestStyled_CI(t *testing.T) {
	t.Setenv(EnvPlain, "")
	t.Setenv("CI", "true")
	t.Setenv("NO_COLOR", "")

	if Styled(os.Stdout) {
		t.Error("Styled() = true, want false under CI")
	}
}

func TestStyled_NO_COLOR(t *testing.T) {
	t.Setenv(EnvPlain, "")
	t.Setenv("CI", "")
	t.Setenv("NO_COLOR", "1")

	if Styled(os.Stdout) {
		t.Error("Styled() = true, want false with NO_COLOR")
	}
}

func TestStyled_NotATerminal(t *testing.T) {
	t.Setenv(EnvPlain, "")
	t.Setenv("CI", "")
	t.Setenv("NO_COLOR", "")

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if Styled(f) {
		t.Error("Styled() = true for a regular file")
	}
}
