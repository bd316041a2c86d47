// Package templates contains the templ components shared by every GUI page.
package templates
