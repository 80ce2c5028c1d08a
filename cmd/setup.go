package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/kirana/internal/config"
	"github.com/theirongolddev/kirana/internal/tui"
	"github.com/theirongolddev/kirana/internal/tui/theme"
)

var setupCmd = &cobra.Command{
	Use:         "setup",
	Short:       "Interactive setup wizard",
	Annotations: map[string]string{annotationNoValidate: "true"},
	RunE:        runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Start from the config file, without this run's flag overrides.
	saved, err := config.Load()
	if err != nil {
		saved = config.DefaultConfig()
	}
	theme.SetActive(saved.Appearance.Theme)

	updated, err := tui.RunSetup(saved)
	if errors.Is(err, huh.ErrUserAborted) {
		fmt.Println("\n  Setup cancelled, nothing saved.")
		return nil
	}
	if err != nil {
		return err
	}
	if err := updated.Validate(); err != nil {
		return err
	}

	if err := config.Save(updated); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `kirana setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
