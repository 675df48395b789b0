package report

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/nvandessel/coherence/internal/models"
)

const (
	cReset  = "\033[0m"
	cBold   = "\033[1m"
	cRed    = "\033[91m"
	cGreen  = "\033[92m"
	cYellow = "\033[93m"
	cBlue   = "\033[94m"
	cPurple = "\033[95m"
	cCyan   = "\033[96m"
)

// categoryColors gives each category its console color.
var categoryColors = map[models.Category]string{
	models.CategorySilver:   cBlue,
	models.CategoryCrimson:  cRed,
	models.CategoryVoid:     cCyan,
	models.CategoryObsidian: cGreen,
	models.CategoryOmni:     cYellow,
}

// ColorEnabled resolves a color mode ("auto", "always", "never") for f.
// In auto mode colors are used only when f is a terminal and NO_COLOR is unset.
func ColorEnabled(mode string, f *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *Printer) wrap(s string, codes ...string) string {
	if !p.color || len(codes) == 0 {
		return s
	}
	prefix := ""
	for _, c := range codes {
		prefix += c
	}
	return prefix + s + cReset
}
