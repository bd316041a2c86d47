// Package pages contains the full-page templ components of the GUI.
package pages
