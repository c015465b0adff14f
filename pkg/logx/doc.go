// Package logx is a thin structured-logging facade over zerolog.
//
// It exists so the rest of the bot logs through one stable API while the
// sinks (console, file) and level can be swapped at runtime via
// Service.Apply.
package logx
