// Package charts draws dashboard chart specifications as static PNG images.
//
// The interactive page renders the same specifications with Plotly in the
// browser; images serve reports, the CLI and clients without JavaScript.
// The choropleth map has no image form.
package charts
