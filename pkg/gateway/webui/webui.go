// Package webui serves the agent builder page.
package webui

import (
	_ "embed"
	"strings"
)

//go:embed index.html
var indexHTML string

// Render fills the deployment's phone number into the page.
func Render(phoneNumber string) string {
	if strings.TrimSpace(phoneNumber) == "" {
		phoneNumber = "Not Configured"
	}
	return strings.ReplaceAll(indexHTML, "{{PHONE_NUMBER}}", phoneNumber)
}
