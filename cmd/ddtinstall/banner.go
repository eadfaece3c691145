package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func printASCII() {
	logo := `
██████╗ ██████╗ ████████╗
██╔══██╗██╔══██╗╚══██╔══╝
██║  ██║██║  ██║   ██║
██║  ██║██║  ██║   ██║
██████╔╝██████╔╝   ██║
╚═════╝ ╚═════╝    ╚═╝   `

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ccbeff")).
		Bold(true).
		MarginBottom(1)

	fmt.Println(style.Render(logo))
}
