// Package logger is a standardized event logging framework for the shell.
//
// Events describe process lifecycle changes (commands started, exit codes,
// signals, traps, coprocesses and watch triggers) and are written as newline
// delimited JSON so they can be tailed or post-processed.
package logger
