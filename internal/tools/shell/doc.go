// Package shell provides modular shell execution tools for the JIT Clean Loop.
//
// These tools wrap command execution and make them available
// to any agent based on intent-driven JIT selection.
//
// Tools:
//   - run_command: Execute a shell command
//   - bash: Execute a bash script
//   - run_build: Execute project build command
//   - run_tests: Execute project test command
package shell
