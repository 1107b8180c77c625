package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirmDestructive guards deletes. Non-interactive runs must opt in with
// --yes; interactive ones get a prompt naming what will be removed.
func confirmDestructive(assumeYes bool, subjects []string) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if !stdinIsTerminal() {
		return false, fmt.Errorf("refusing to delete %d resource(s) without --yes in a non-interactive run", len(subjects))
	}

	title := fmt.Sprintf("Delete %d resource(s)?", len(subjects))
	description := ""
	for _, subject := range subjects {
		description += subject + "\n"
	}

	confirmed := false
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(description).
			Value(&confirmed),
	)).WithShowHelp(false)

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}
