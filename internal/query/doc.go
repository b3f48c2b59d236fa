// Package query reads a named text file line by line and runs the lines
// through a fixed chain of text operators.
//
// The package has no HTTP dependencies; the web server and the linequery CLI
// both drive it through [Service] or [Run].
//
// # Streams
//
// A [Stream] is an iter.Seq2[string, error]: lazy, forward-only and meant to
// be ranged over once. [Source.Open] produces one per request from a file in
// the data directory. Filter, map and regex stages pass lines through as they
// are pulled; sort, limit and unique read their whole input first.
//
// # Operators
//
// [Commands] holds one optional argument per operator. [Compile] always
// orders the selected operators the same way:
//
//	filter → map → regex → sort → limit | unique
//
// so a substring filter sees raw lines even if map was requested first, and
// limit truncates sorted output. When both limit and unique are present only
// limit runs. The result of unique has no defined order.
//
// # Errors
//
// Failures keep their kind so callers can map them:
//
//   - [ErrNotFound]: missing, unreadable or non UTF-8 file
//   - [*PatternError]: regex argument does not compile
//   - [*ArgumentError]: map or limit argument is not an integer
//   - [*IndexError]: a line has no field at the map index
//
// [MapError] turns any of them into a [UserMessage] with a support code.
// A failed query never returns partial output.
package query
