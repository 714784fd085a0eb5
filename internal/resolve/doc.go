// SPDX-License-Identifier: MPL-2.0

// Package resolve decides how a flake serves an invocation: by building a
// toolchain the flake declares, or by re-entering the dispatcher inside
// one of the flake's dev shells. It may also decline, in which case the
// caller tries the next source.
package resolve
