// Package superblock locates and decodes the HDF5 superblock, the fixed
// structure every file starts from. It understands versions 0 through 3
// and can encode a version 3 superblock for newly built files.
//
// The signature is searched for at offsets 0, 512, 1024 and 2048, so files
// with a user block are accepted. For version 0 and 1 files the root group
// is described by a symbol table entry whose scratch pad carries the
// group's B-tree and local heap addresses; [Superblock.RootBTree] and
// [Superblock.RootHeap] expose them for readers whose root object header
// lacks a symbol table message.
package superblock
