package cli

import (
	apperrors "github.com/agbru/fibdrv/internal/errors"
	"github.com/agbru/fibdrv/internal/ui"
)

var _ apperrors.ColorProvider = CLIColorProvider{}

// CLIColorProvider implements apperrors.ColorProvider with the current
// terminal theme.
type CLIColorProvider struct{}

// Yellow returns the warning color of the current theme.
func (CLIColorProvider) Yellow() string { return ui.ColorYellow() }

// Reset returns the reset code of the current theme.
func (CLIColorProvider) Reset() string { return ui.ColorReset() }
