// Package object reads and writes HDF5 object headers.
//
// Every HDF5 object (group or dataset) has an object header holding its
// metadata as a list of header messages. Two header versions exist:
//
//   - Version 1, used with superblocks 0 and 1. Messages are 8-byte aligned
//     and continuation blocks carry no signature.
//   - Version 2 (signature "OHDR"), used with superblocks 2 and 3. Every
//     chunk ends with a Jenkins lookup3 checksum and continuation blocks
//     start with "OCHK".
//
// [Read] detects the version, follows continuation messages and returns a
// [Header]. Typed accessors such as [Header.Dataspace] and
// [Header.Attributes] pick messages out of it.
//
// [Encode] produces a version 2 header from a list of messages. It is used
// by the file builder, which never needs continuation blocks.
package object
