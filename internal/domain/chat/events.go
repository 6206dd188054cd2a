package chat

import "encoding/json"

// EventSink receives the ordered stream of events produced while running a
// turn. Implementations handle transport concerns; the loop only decides
// what to emit and when.
type EventSink interface {
	// OnChunk delivers one fragment of assistant text.
	OnChunk(text string)
	// OnToolCall announces a tool invocation before it executes. Only the
	// tool name is exposed; arguments stay server-side.
	OnToolCall(name string)
	// OnWriteProposal announces a staged write awaiting confirmation.
	OnWriteProposal(confirmationID, toolName string, proposal json.RawMessage)
	// OnError reports a terminal failure. No further events follow.
	OnError(message string)
	// OnDone signals successful completion of the turn.
	OnDone()
}
