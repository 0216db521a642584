/*
Package deepstock produces long-form equity research memos for a company ticker or name.

A submission flows through a small, explicit state machine: the subject is validated,
the credential is checked, an institutional 13-section memo prompt is built, a single
Gemini call is made, and the returned text is rendered into a closed set of typed
content blocks (headings, paragraphs and unordered lists with strong runs). Anything
else in the generated text, including HTML and script markup, stays literal.

# Concept

Only one request is observable at a time. Every submission takes a new ticket, and a
generator result is applied only while its ticket is current. Submitting again while
a request is in flight orphans the earlier call; its result is dropped when it arrives.

The core is hexagonal: durable storage (ports.SecretStore) and the generation backend
(ports.Generator) are interfaces, with file, memory, redis and sqlite stores and a
Gemini client provided.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/deepstock"
		"github.com/aretw0/deepstock/pkg/adapters/file"
	)

	func main() {
		ctx := context.Background()
		eng, err := deepstock.New(ctx, file.New("/home/me/.deepstock/secrets"))
		if err != nil {
			log.Fatal(err)
		}
		defer eng.Close()

		ticket, ok := eng.Submit("AAPL")
		if !ok {
			log.Fatal("empty subject")
		}
		st, err := eng.Wait(ctx, ticket)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(st.RawText)
	}

The credential is read from storage under the fixed key "gemini_api_key". When it is
absent, DEEPSTOCK_API_KEY and then GEMINI_API_KEY are used.

# Surfaces

The deepstock binary exposes the engine as a one-shot command, a line REPL, a
bubbletea TUI, an HTTP API with server-sent events, and an MCP server.
*/
package deepstock
