package common

import (
	"fmt"
	"strings"

	"ucic-governance-go/internal/models"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintSeparatorNewline prints a separator with a newline before it
func PrintSeparatorNewline(char string, width int) {
	fmt.Println("\n" + strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// FormatUC renders an amount in smallest units as a UC decimal, e.g. "12.5 UC".
func FormatUC(units uint64) string {
	return models.UnitsToUC(units).String() + " UC"
}

// FormatReceipt renders a one-line summary of an applied operation.
func FormatReceipt(r models.Receipt) string {
	line := fmt.Sprintf("#%-5d %-22s %s", r.Seq, r.Kind, r.Result)
	if len(r.Postings) > 0 {
		line += fmt.Sprintf(" (%d posting(s))", len(r.Postings))
	}
	return line
}
