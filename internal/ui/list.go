package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
)

var _ list.Item = songItem{}

// songItem is one canonical song in the preview list.
type songItem struct {
	index int
	song  string
}

func (i songItem) FilterValue() string { return i.song }
func (i songItem) Title() string       { return i.song }
func (i songItem) Description() string { return fmt.Sprintf("#%d", i.index+1) }

func songItems(songs []string) []list.Item {
	items := make([]list.Item, len(songs))
	for i, s := range songs {
		items[i] = songItem{index: i, song: s}
	}
	return items
}
