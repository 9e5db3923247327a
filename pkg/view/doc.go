// Package view holds the default renderers: a JSON view, an html/template
// engine loaded from a directory, and a CSV binary view.
package view
