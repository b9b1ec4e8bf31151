// Package labels reads and writes label files and indexes rows by label.
//
// A label file is UTF-8 text with one label per line. Line i is the label of
// row i of the companion vector file, so the line count must equal the row
// count. A trailing "\r" is stripped on read; labels are otherwise opaque.
package labels
