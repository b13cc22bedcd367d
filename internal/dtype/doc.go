// Package dtype converts raw HDF5 element bytes to and from Go values.
//
// Numeric classes (fixed-point, IEEE float and enums over integers) decode
// to float64 or int64 regardless of their stored width or byte order.
// Fixed-length strings are trimmed at their padding; variable-length
// strings are resolved through the global heap.
package dtype
