// SPDX-License-Identifier: MPL-2.0

// Package collection resolves named toolchains inside a pre-populated
// toolchain collection directory.
//
// A collection is a directory holding one subdirectory per toolchain plus a
// collection.json metadata file. Named toolchains are looked up literally
// first and then with the host platform appended ("nightly" becomes
// "nightly-x86_64-unknown-linux-gnu"). When no name is given the first of
// default, stable, beta and nightly that exists is used.
package collection
