package main

import (
	"fmt"
	"strings"

	"processmate/processmate/types"
	"processmate/processmate/utils/color"
)

// renderStructured formats a StructuredResponse for a terminal.
func renderStructured(resp types.StructuredResponse) string {
	var b strings.Builder

	confidence := fmt.Sprintf("[%s, confidence %.2f]", resp.Intent, resp.Confidence)
	if resp.Confidence < types.ParseErrorConfidence {
		confidence = color.ColorWarning(confidence)
	} else {
		confidence = color.ColorMuted(confidence)
	}
	fmt.Fprintf(&b, "%s %s\n", color.ColorTitle(resp.Title), confidence)
	if resp.Summary != "" {
		fmt.Fprintf(&b, "%s\n", resp.Summary)
	}
	b.WriteString("\n")

	switch c := resp.Content.(type) {
	case types.ProcessData:
		for _, s := range c.Steps {
			fmt.Fprintf(&b, "  %d. %s %s\n", s.Step, s.Description, color.ColorMuted("("+string(s.Status)+")"))
		}
		if c.EstimatedDuration != "" {
			fmt.Fprintf(&b, "%s %s\n", color.ColorInfo("Estimated duration:"), c.EstimatedDuration)
		}
	case types.DocumentData:
		fmt.Fprintf(&b, "%s %s\n", color.ColorInfo("Document type:"), c.DocumentType)
		for _, s := range c.Sections {
			fmt.Fprintf(&b, "\n%s\n%s\n", color.ColorHeading(s.Heading), s.Body)
		}
	case types.ReminderData:
		date := "no date"
		if c.Date != nil {
			date = *c.Date
		}
		fmt.Fprintf(&b, "%s %s\n", color.ColorInfo("Event:"), c.EventTitle)
		fmt.Fprintf(&b, "%s %s\n", color.ColorInfo("Date:"), date)
		if c.Notes != "" {
			fmt.Fprintf(&b, "%s %s\n", color.ColorInfo("Notes:"), c.Notes)
		}
	case types.GeneralData:
		fmt.Fprintf(&b, "%s\n", color.ColorResponse(c.Response))
	}
	return b.String()
}
