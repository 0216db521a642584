/*
Package runner implements the interactive loop that drives the research orchestrator
from a line-oriented stream.

Every line is either a command or a subject to research. Commands start with a colon:

	:key <value>   store a new credential
	:clear-key     clear the stored credential
	:state         print the current request state
	:help          list commands
	:quit          leave the loop (also "exit" or "quit")

# Key Components

  - Runner: reads lines, submits subjects and waits for each result.
  - IOHandler: decouples how lines are read and states are shown.
  - TextHandler: human-readable output for terminals.
  - JSONHandler: JSON-Lines output for scripting.

# Usage

	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)
	if err := r.Run(ctx, engine); err != nil {
		log.Fatal(err)
	}

Ctrl+C while a request is in flight stops waiting and returns to the prompt; the
request keeps running and is superseded by the next submission.
*/
package runner
