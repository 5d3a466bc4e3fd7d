// Package cmd implements the CLI commands for Helios.
//
// # Architecture
//
// ## Core CLI
//
//   - root.go: Main entry point, App struct, cobra command setup, and flags
//   - generate.go: Request building, streaming, applying file blocks, commit and push
//   - review.go: The review subcommand (staged diff, commit, push)
//   - config.go: The config subcommands (init, path)
//
// ## Interactive Mode
//
//   - interactive.go: go-prompt REPL, completion, multiline input, history
//   - slash_commands.go: Dispatch of parsed slash commands (/file, /model, /git_commit, ...)
//
// # Key Components
//
// ## App
//
// The App struct holds configuration, the chat client, the Git collaborator
// and the prompter. It's created in Execute() and shared by all commands.
//
// ## InteractiveSession
//
// Wraps a session.Session for the REPL:
//   - Conversation and context files
//   - Slash commands, one at a time
//   - Multiline input handling
//   - Ctrl+C cancels an in-flight request; at the prompt it exits
//
// # Flow
//
// A prompt is sent with the context files and Git state. Code blocks whose
// info string names a file are extracted, previewed, confirmed and written.
// The written paths can then be committed and pushed.
//
// # Usage
//
//	func main() {
//	    cmd.Execute()
//	}
package cmd
