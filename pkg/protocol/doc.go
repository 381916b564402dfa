// Package protocol implements the text command protocol spoken by the
// controller boards.
package protocol

// A command is a sequence of tokens joined by ':' and terminated by '\n',
// e.g. PIN:4:MODE:SET:OUTPUT. A command whose final token ends in '?' is a
// query and the board answers with a value; all other commands are answered
// with ACK, or NACK:<reason> on rejection.
//
// The protocol is a fixed contract implemented by the board firmwares. This
// package only encodes requests and interprets replies; it never retries
// (retry happens at the channel level around the whole exchange).
//
// Producer: board firmware
// Consumer: host-side board proxies
