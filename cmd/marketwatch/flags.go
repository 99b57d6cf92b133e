package main

// Flag structs to decouple cobra from logic for testing.

// WatchFlags holds flags for the watch (daemon) command
type WatchFlags struct {
	ConfigPath string
	Daemonize  bool
	PidFile    string
	LogFile    string
}

// OnceFlags holds flags for the once command
type OnceFlags struct {
	ConfigPath string
	Timeout    string
}

// LedgerFlags holds flags for the ledger inspection command
type LedgerFlags struct {
	ConfigPath string
}
