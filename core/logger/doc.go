// Package logger provides a structured logging facility based on Zap.
//
// Sync runs from the CLI log to the console by default; the json format is
// meant for the server mode where logs are shipped. The WithRayID helper
// extracts the request id from a Fiber context and attaches it to the log
// entry so all logs of one API-triggered run can be correlated.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("sync started")
package logger
