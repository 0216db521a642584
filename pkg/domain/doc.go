/*
Package domain contains the core domain models for the deepstock request lifecycle.

It defines the entities the orchestrator works with: the Credential, the Subject, the
RequestState union and the ContentBlock tree produced by the renderer. This package is
kept pure and free of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Credential: The opaque secret authorizing calls to the generation backend.
  - Subject: The trimmed, non-empty ticker or company name driving a report.
  - RequestState: The current phase of the single observable request (Idle, Validating, InFlight, Succeeded, Failed).
  - ContentBlock: One structural unit (Heading, Paragraph, UnorderedList) of a rendered memo.
  - GenerationError: The explicit failure value returned across the generator boundary.
*/
package domain
