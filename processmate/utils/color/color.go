package color

import (
	"github.com/fatih/color"
)

var (
	titleColor    = color.New(color.FgCyan, color.Bold)
	headingColor  = color.New(color.Bold)
	infoColor     = color.New(color.FgGreen)
	mutedColor    = color.New(color.FgHiBlack)
	warningColor  = color.New(color.FgYellow, color.Bold)
	errorColor    = color.New(color.FgRed, color.Bold)
	responseColor = color.New(color.FgHiYellow)
)

// SetEnabled switches colouring on or off for every helper in this package.
func SetEnabled(enabled bool) {
	color.NoColor = !enabled
}

func ColorTitle(s string) string {
	return titleColor.Sprint(s)
}

func ColorHeading(s string) string {
	return headingColor.Sprint(s)
}

func ColorInfo(s string) string {
	return infoColor.Sprint(s)
}

func ColorMuted(s string) string {
	return mutedColor.Sprint(s)
}

func ColorWarning(s string) string {
	return warningColor.Sprint(s)
}

func ColorError(s string) string {
	return errorColor.Sprint(s)
}

func ColorResponse(s string) string {
	return responseColor.Sprint(s)
}
