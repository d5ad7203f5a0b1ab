// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"

	"github.com/pharbuilder/pharbuilder/pkg/composer"

	"github.com/spf13/pflag"
)

// LoadOptions defines explicit settings loading inputs.
type LoadOptions struct {
	// Flags are the command-line flags; only flags that were set override
	// lower layers.
	Flags *pflag.FlagSet
}

// Provider loads build settings for a project.
type Provider interface {
	Load(ctx context.Context, project *composer.Project, opts LoadOptions) (*Settings, error)
}

type layeredProvider struct{}

// NewProvider creates a settings provider.
func NewProvider() Provider {
	return &layeredProvider{}
}

// Load resolves the project's settings.
func (p *layeredProvider) Load(ctx context.Context, project *composer.Project, opts LoadOptions) (*Settings, error) {
	return loadWithOptions(ctx, project, opts)
}
