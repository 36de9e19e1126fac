// Package library reads and writes Rekordbox collection XML. It turns TRACK
// elements into classifier inputs and applies rendered tag sets back onto a
// collection for export, including the energy-derived star rating.
package library
