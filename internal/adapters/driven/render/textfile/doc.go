// Package textfile provides a file-backed render provider. A rendered
// document is a directory of page-NNN.txt files; each file is the
// extracted text layer of one page, one segment per line, laid out on a
// monospace grid. It stands in for a graphical rendering engine and
// drives the anchoring and overlay pipeline end to end.
package textfile
