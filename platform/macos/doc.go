// SPDX-License-Identifier: Unlicense OR MIT

// Package macos implements the glview platform driver with AppKit's
// NSOpenGLContext and NSOpenGLView, and the display refresh clock with
// CVDisplayLink. It is empty unless built for macOS with cgo.
package macos
