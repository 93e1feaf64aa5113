// Package printing renders quotes as HTML documents and, through headless
// Chrome, as PDFs.
package printing
