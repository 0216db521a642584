/*
Package ports defines the driven ports (interfaces) for the deepstock core.

These interfaces decouple the orchestrator from external implementations, allowing
it to work with various storage backends and generation services.

# Key Interfaces

  - SecretStore: Durable key/value storage for the credential (memory, file, redis, sqlite).
  - Generator: One request/response call to the text-generation backend.
*/
package ports
