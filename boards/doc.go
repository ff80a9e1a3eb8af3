// Package boards holds static pin-multiplexing tables for supported
// boards.
//
// A board table is pure configuration: a list of pin/function assignments
// applied exactly once, before any peripheral is brought up. Application
// happens through the narrow [PinMux] interface; the tables themselves
// have no runtime behavior and no interaction with the entropy core
// beyond that single boot-time pass.
package boards
