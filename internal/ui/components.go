package ui

import (
	"fmt"
	"strings"
)

func renderStatus(paused bool, scene string, index, total int) string {
	icon, text := "▶", "playing"
	if paused {
		icon, text = "❚❚", "paused"
	}
	return fmt.Sprintf("%s  %s  %s", icon, text, sceneStyle.Render(fmt.Sprintf("%s (%d/%d)", scene, index+1, total)))
}

// indent prefixes every line of block with n spaces.
func indent(block string, n int) string {
	if block == "" {
		return ""
	}
	pad := strings.Repeat(" ", n)
	return pad + strings.ReplaceAll(block, "\n", "\n"+pad)
}

func ratio(elapsed, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return max(0, min(1, elapsed/total))
}
