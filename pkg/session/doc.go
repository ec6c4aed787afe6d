/*
Package session manages the animation graphs of many actors.

Each actor owns one Engine. The Manager serializes access per actor with a
reference-counted mutex, so outer adapters (HTTP, MCP) can drive different
actors concurrently while calls on a single actor never overlap. Optionally
every tick's root pose digest is recorded to a DigestStore under the actor id,
so runs on different instances can be compared with pkg/replay.
*/
package session
