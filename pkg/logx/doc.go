// Package logx configures schedulerd's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//
// Components take a logx.Logger rather than *zerolog.Logger directly so the
// sink can be swapped or reconfigured (Service.Apply) without touching call
// sites.
package logx
