// Package brotherql builds Brother QL raster command streams and sends them
// to a printer over TCP (port 9100) or a Linux printer device node.
//
// The label and model tables mirror the media and capability matrix
// published for the QL series. Callers normally use Convert to turn an
// image into a complete job and Open to obtain a transport.
package brotherql
