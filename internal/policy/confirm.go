package policy

import (
	"fmt"
	"strings"
)

// RequireConfirmation enforces an explicit confirm=true argument for tools
// flagged as requiring confirmation.
func RequireConfirmation(toolName string, confirmationRequired bool, args map[string]any) error {
	name := strings.TrimSpace(toolName)
	if name == "" || !confirmationRequired {
		return nil
	}
	if hasConfirmTrue(args) {
		return nil
	}
	return fmt.Errorf("tool %s requires confirm=true", name)
}

func hasConfirmTrue(args map[string]any) bool {
	value, ok := args["confirm"]
	if !ok {
		return false
	}
	confirm, ok := value.(bool)
	return ok && confirm
}
