// Package update serves firmware images over the module's update
// channel.
//
// It is the lab stand-in for the vendor's update service: a WebSocket
// endpoint at /service/update that the module's updater connects to.
// The session is module-driven: the module introduces itself, the
// server offers the staged image with its size and digest, the module
// asks for it, and the server streams fixed-size binary chunks, each
// acknowledged before the next is sent. The server will happily stage
// an image produced by the patch package; whether the module accepts
// it is the module's signature check's problem, which is exactly the
// path under study.
package update
