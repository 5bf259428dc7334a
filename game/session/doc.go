// Package session tracks live game sessions and archives finished ones.
//
// The Manager owns the in-memory registry of running games. Finished games
// are converted to GameRecords, the durable JSON form of a session's action
// log, and handed to a LogStore. FileStore is the file-system LogStore used
// in production; tests may supply their own.
package session
