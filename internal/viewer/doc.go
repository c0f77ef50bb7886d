// Package viewer is an interactive browser over a disassembly listing.
//
// It wraps the rendered listing in a scrollable viewport with a search
// prompt: / opens the prompt, n and N jump between matches, g and G go
// to the top and bottom, q quits. The listing itself comes pre-rendered
// from the render package; the viewer only navigates it.
package viewer
