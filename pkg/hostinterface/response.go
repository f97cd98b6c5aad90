package hostinterface

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/OCAP2/cutscene/internal/dispatcher"
)

// TimestampCommand is answered without a dispatcher.
const TimestampCommand = ":TIMESTAMP:"

// Call routes one host call to the dispatcher and formats the reply.
// RVExtension passes commands in the form "command|arg|arg".
func Call(command string, args []string) string {
	if command == TimestampCommand {
		return strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
	}

	d := Config.dispatcher
	if d == nil {
		return formatResponse(nil, fmt.Errorf("extension not initialized"))
	}
	if args == nil && !d.HasHandler(command) && strings.Contains(command, "|") {
		parts := strings.Split(command, "|")
		command, args = parts[0], parts[1:]
	}
	if !d.HasHandler(command) {
		return formatResponse(nil, fmt.Errorf("no handler registered for %s", command))
	}

	result, err := d.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: time.Now(),
	})
	return formatResponse(result, err)
}

// formatResponse formats a handler result for the host: ["ok"],
// ["ok", "text"], ["ok", <json>] or ["error", "message"].
func formatResponse(result any, err error) string {
	if err != nil {
		return fmt.Sprintf(`["error", "%s"]`, escape(err.Error()))
	}
	switch v := result.(type) {
	case nil:
		return `["ok"]`
	case string:
		return fmt.Sprintf(`["ok", "%s"]`, escape(v))
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`["error", "%s"]`, escape("failed to encode result: "+err.Error()))
	}
	return fmt.Sprintf(`["ok", %s]`, data)
}

// escape doubles quotes the way the host's string literals expect.
func escape(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
