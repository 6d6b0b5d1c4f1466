// Package style renders the chat line decorations: sender tags, the
// private-message tag, the operator tag, and room-info notices. Colors
// degrade to plain text on terminals without ANSI support.
package style

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	roomInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Background(lipgloss.Color("5"))

	adminTagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("4"))

	roomNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("10"))

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)
)

// Chat prefixes room chat with the sender's name.
func Chat(sender, text string) string {
	return sender + ": " + text
}

// RoomInfo marks a system notice (join, leave, disconnect) so it stands
// apart from user chat. Room-info lines never carry a sender tag.
func RoomInfo(text string) string {
	return roomInfoStyle.Render(text)
}

// Private prefixes a client-to-client private message.
func Private(from, text string) string {
	return fmt.Sprintf("[private - %s]: %s", from, text)
}

// AdminLine prefixes operator output with the highlighted admin tag.
func AdminLine(adminName, text string) string {
	return adminTagStyle.Render("["+adminName+"]") + ": " + text
}

// RoomName highlights a room name inside a welcome line.
func RoomName(name string) string {
	return roomNameStyle.Render(name)
}

// Banner colors the client's greeting art.
func Banner(art string) string {
	return bannerStyle.Render(art)
}
